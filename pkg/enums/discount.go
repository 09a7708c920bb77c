package enums

import "fmt"

// DiscountMethod distinguishes code-based discounts from automatic ones.
type DiscountMethod string

const (
	DiscountMethodCode      DiscountMethod = "code"
	DiscountMethodAutomatic DiscountMethod = "automatic"
)

var validDiscountMethods = []DiscountMethod{
	DiscountMethodCode,
	DiscountMethodAutomatic,
}

// IsValid reports whether the method is recognized.
func (m DiscountMethod) IsValid() bool {
	for _, candidate := range validDiscountMethods {
		if candidate == m {
			return true
		}
	}
	return false
}

// ParseDiscountMethod converts a raw string into a DiscountMethod.
func ParseDiscountMethod(value string) (DiscountMethod, error) {
	for _, candidate := range validDiscountMethods {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid discount method %q", value)
}

// DiscountValueType describes how the discount value is interpreted.
type DiscountValueType string

const (
	DiscountValuePercentage  DiscountValueType = "percentage"
	DiscountValueFixedAmount DiscountValueType = "fixed_amount"
)

var validDiscountValueTypes = []DiscountValueType{
	DiscountValuePercentage,
	DiscountValueFixedAmount,
}

// IsValid reports whether the value type is recognized.
func (v DiscountValueType) IsValid() bool {
	for _, candidate := range validDiscountValueTypes {
		if candidate == v {
			return true
		}
	}
	return false
}

// ParseDiscountValueType converts a raw string into a DiscountValueType.
func ParseDiscountValueType(value string) (DiscountValueType, error) {
	for _, candidate := range validDiscountValueTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid discount value type %q", value)
}

// DiscountScope restricts which part of the order a discount applies to.
type DiscountScope string

const (
	DiscountScopeOrder    DiscountScope = "order"
	DiscountScopeProducts DiscountScope = "products"
)

var validDiscountScopes = []DiscountScope{
	DiscountScopeOrder,
	DiscountScopeProducts,
}

// IsValid reports whether the scope is recognized.
func (s DiscountScope) IsValid() bool {
	for _, candidate := range validDiscountScopes {
		if candidate == s {
			return true
		}
	}
	return false
}

// ParseDiscountScope converts a raw string into a DiscountScope.
func ParseDiscountScope(value string) (DiscountScope, error) {
	for _, candidate := range validDiscountScopes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid discount scope %q", value)
}
