package store

import (
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/crmkit/backend/domain"
)

// Validator checks a full record before it is persisted. Implementations
// return an INVALID domain error naming the offending field.
type Validator func(domain.Record) error

var validate = validator.New()

// Rule binds a payload field to a go-playground/validator tag expression,
// e.g. Field("email", "required,email").
type Rule struct {
	Field string
	Tag   string
}

// Field builds a validation rule.
func Field(name, tag string) Rule {
	return Rule{Field: name, Tag: tag}
}

// Rules composes per-field rules into a collection Validator. Validation is a
// configuration of the collection, not behavior of the store itself; two
// collections holding similar payloads can enforce different policies.
func Rules(rules ...Rule) Validator {
	return func(rec domain.Record) error {
		for _, rule := range rules {
			value, ok := rec.Fields[rule.Field]
			if !ok || value == nil {
				if strings.Contains(rule.Tag, "required") {
					return domain.Invalid(rule.Field, "is required")
				}
				continue
			}
			if err := validate.Var(value, rule.Tag); err != nil {
				return domain.WrapError(domain.ErrCodeInvalid, "field \""+rule.Field+"\" is malformed", err)
			}
		}
		return nil
	}
}

// Statuses restricts the workflow status to an allowed set. An empty status
// passes; collections that require one add a required rule of their own.
func Statuses(allowed ...string) Validator {
	set := make(map[string]struct{}, len(allowed))
	for _, s := range allowed {
		set[s] = struct{}{}
	}
	return func(rec domain.Record) error {
		if rec.Status == "" {
			return nil
		}
		if _, ok := set[rec.Status]; !ok {
			return domain.Invalid(domain.FieldStatus, "is not an allowed status")
		}
		return nil
	}
}

// All runs validators in order and returns the first failure.
func All(validators ...Validator) Validator {
	return func(rec domain.Record) error {
		for _, v := range validators {
			if v == nil {
				continue
			}
			if err := v(rec); err != nil {
				return err
			}
		}
		return nil
	}
}
