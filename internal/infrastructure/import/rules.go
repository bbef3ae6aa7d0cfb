package csvimport

import (
	"fmt"
	"slices"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
)

// FieldType is the expected type of a column
type FieldType string

const (
	TypeString  FieldType = "string"
	TypeInt     FieldType = "int"
	TypeDecimal FieldType = "decimal"
	TypeBool    FieldType = "bool"
)

// FieldRule constrains one column
type FieldRule struct {
	Column    string
	Type      FieldType
	Required  bool
	MaxLength int
	Min       *decimal.Decimal
	OneOf     []string
	Unique    bool
}

// FieldRuleBuilder builds a FieldRule fluently
type FieldRuleBuilder struct {
	rule FieldRule
}

// Field starts a string rule for column
func Field(column string) *FieldRuleBuilder {
	return &FieldRuleBuilder{rule: FieldRule{Column: column, Type: TypeString}}
}

func (b *FieldRuleBuilder) Required() *FieldRuleBuilder {
	b.rule.Required = true
	return b
}

func (b *FieldRuleBuilder) Int() *FieldRuleBuilder {
	b.rule.Type = TypeInt
	return b
}

func (b *FieldRuleBuilder) Decimal() *FieldRuleBuilder {
	b.rule.Type = TypeDecimal
	return b
}

func (b *FieldRuleBuilder) Bool() *FieldRuleBuilder {
	b.rule.Type = TypeBool
	return b
}

func (b *FieldRuleBuilder) MaxLength(n int) *FieldRuleBuilder {
	b.rule.MaxLength = n
	return b
}

// Min sets an inclusive lower bound for numeric columns
func (b *FieldRuleBuilder) Min(v decimal.Decimal) *FieldRuleBuilder {
	b.rule.Min = &v
	return b
}

// OneOf restricts the value to a fixed set, compared case-insensitively
func (b *FieldRuleBuilder) OneOf(values ...string) *FieldRuleBuilder {
	b.rule.OneOf = values
	return b
}

// Unique rejects a value already seen earlier in the same file
func (b *FieldRuleBuilder) Unique() *FieldRuleBuilder {
	b.rule.Unique = true
	return b
}

func (b *FieldRuleBuilder) Build() FieldRule {
	return b.rule
}

// Validator checks rows against rules in rule order
type Validator struct {
	rules []FieldRule
	seen  map[string]map[string]int
}

// NewValidator creates a validator for the given rules
func NewValidator(rules ...FieldRule) *Validator {
	return &Validator{rules: rules, seen: make(map[string]map[string]int)}
}

// Columns returns the columns marked required
func (v *Validator) Columns() []string {
	var cols []string
	for _, r := range v.rules {
		if r.Required {
			cols = append(cols, r.Column)
		}
	}
	return cols
}

// Validate records every rule violation in row to errs and reports
// whether the row is clean
func (v *Validator) Validate(row *Row, errs *Errors) bool {
	ok := true
	fail := func(rule FieldRule, code, msg, value string) {
		errs.Add(RowError{Row: row.Line, Column: rule.Column, Code: code, Message: msg, Value: value})
		ok = false
	}

	for _, rule := range v.rules {
		value := row.Get(rule.Column)
		if value == "" {
			if rule.Required {
				fail(rule, CodeRequired, "value is required", "")
			}
			continue
		}
		if rule.MaxLength > 0 && len([]rune(value)) > rule.MaxLength {
			fail(rule, CodeTooLong, fmt.Sprintf("must be at most %d characters", rule.MaxLength), value)
			continue
		}
		if len(rule.OneOf) > 0 && !slices.Contains(rule.OneOf, strings.ToLower(value)) {
			fail(rule, CodeInvalidValue, "must be one of "+strings.Join(rule.OneOf, ", "), value)
			continue
		}

		switch rule.Type {
		case TypeInt, TypeDecimal:
			n, err := decimal.NewFromString(value)
			if err != nil || (rule.Type == TypeInt && !n.IsInteger()) {
				fail(rule, CodeInvalidType, fmt.Sprintf("must be a valid %s", rule.Type), value)
				continue
			}
			if rule.Min != nil && n.LessThan(*rule.Min) {
				fail(rule, CodeOutOfRange, "must be at least "+rule.Min.String(), value)
				continue
			}
		case TypeBool:
			if _, err := ParseBool(value); err != nil {
				fail(rule, CodeInvalidType, "must be true or false", value)
				continue
			}
		}

		if rule.Unique {
			key := strings.ToLower(value)
			if v.seen[rule.Column] == nil {
				v.seen[rule.Column] = make(map[string]int)
			}
			if first, dup := v.seen[rule.Column][key]; dup {
				fail(rule, CodeDuplicate, fmt.Sprintf("duplicate of row %d", first), value)
				continue
			}
			v.seen[rule.Column][key] = row.Line
		}
	}
	return ok
}

// ParseBool accepts the spellings spreadsheets commonly export
func ParseBool(s string) (bool, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "0", "false", "no", "n":
		return false, nil
	case "1", "true", "yes", "y":
		return true, nil
	}
	return strconv.ParseBool(s)
}
