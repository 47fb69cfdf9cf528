package token

import (
	"fmt"
	"reflect"
	"strings"
	"sync"

	"github.com/dustin/go-humanize"
	"github.com/go-playground/validator/v10"

	"ossy/pkg/errors"
)

// FilterCriteria are the screening constraints of one run. Every field is
// optional; a nil or zero value means "no constraint".
type FilterCriteria struct {
	Chain        *string  `json:"chain,omitempty" validate:"omitempty,max=64"`
	MinVolume24h *float64 `json:"minVolume24h,omitempty" validate:"omitempty,gte=0"`
	MinLiquidity *float64 `json:"minLiquidity,omitempty" validate:"omitempty,gte=0"`
	MinMarketCap *float64 `json:"minMarketCap,omitempty" validate:"omitempty,gte=0"`
	MaxMarketCap *float64 `json:"maxMarketCap,omitempty" validate:"omitempty,gte=0"`
	MaxAgeDays   *float64 `json:"maxAgeDays,omitempty" validate:"omitempty,gte=0"`
}

var (
	validate     *validator.Validate
	validateOnce sync.Once
)

func getValidator() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())
		validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
			name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
			if name == "-" {
				return ""
			}
			return name
		})
	})
	return validate
}

// Validate checks numeric bounds. The first failing field is reported as an
// errors.ValidationError, which matches errors.ErrInvalidInput.
func (c FilterCriteria) Validate() error {
	err := getValidator().Struct(c)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) && len(verrs) > 0 {
		fe := verrs[0]
		return errors.NewValidationError(fe.Field(), describeTag(fe), fe.Value())
	}
	return errors.Wrap(errors.ErrInvalidInput, err.Error())
}

func describeTag(fe validator.FieldError) string {
	switch fe.Tag() {
	case "gte":
		return "must be >= " + fe.Param()
	case "max":
		return "must be at most " + fe.Param() + " characters"
	default:
		return "failed " + fe.Tag()
	}
}

// ChainFilter returns the trimmed chain id, empty when no chain constraint applies
func (c FilterCriteria) ChainFilter() string {
	if c.Chain == nil {
		return ""
	}
	return strings.TrimSpace(*c.Chain)
}

// MatchesChain reports whether a candidate on chainID passes the chain constraint
func (c FilterCriteria) MatchesChain(chainID string) bool {
	chain := c.ChainFilter()
	return chain == "" || strings.EqualFold(strings.TrimSpace(chainID), chain)
}

// IsEmpty reports whether no constraint is set
func (c FilterCriteria) IsEmpty() bool {
	for _, v := range []*float64{c.MinVolume24h, c.MinLiquidity, c.MinMarketCap, c.MaxMarketCap, c.MaxAgeDays} {
		if _, ok := bound(v); ok {
			return false
		}
	}
	return c.ChainFilter() == ""
}

// String renders the set constraints for logs and summaries
func (c FilterCriteria) String() string {
	var parts []string
	if chain := c.ChainFilter(); chain != "" {
		parts = append(parts, "chain "+chain)
	}
	if v, ok := bound(c.MinVolume24h); ok {
		parts = append(parts, "24h volume >= "+FormatUSD(v))
	}
	if v, ok := bound(c.MinLiquidity); ok {
		parts = append(parts, "liquidity >= "+FormatUSD(v))
	}
	if v, ok := bound(c.MinMarketCap); ok {
		parts = append(parts, "market cap >= "+FormatUSD(v))
	}
	if v, ok := bound(c.MaxMarketCap); ok {
		parts = append(parts, "market cap <= "+FormatUSD(v))
	}
	if v, ok := bound(c.MaxAgeDays); ok {
		parts = append(parts, fmt.Sprintf("age <= %s days", humanize.Ftoa(v)))
	}
	if len(parts) == 0 {
		return "no constraints"
	}
	return strings.Join(parts, ", ")
}

// bound returns a constraint value; nil and zero are unset
func bound(v *float64) (float64, bool) {
	if v == nil || *v == 0 {
		return 0, false
	}
	return *v, true
}

// Ptr is a helper for building criteria literals
func Ptr[T any](v T) *T { return &v }
