// Copyright (c) Jeevanandam M. (https://github.com/jeevatkm)
// Source code and usage is governed by a MIT style
// license that can be found in the LICENSE file.

// Package valpar validates configuration structs populated from the
// `authentication` section before they reach the runtime.
package valpar

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"sync"

	"gopkg.in/go-playground/validator.v9"
)

// Integrating a library `https://github.com/go-playground/validator` (Version 9)
// as a validtor.
//
// Currently points at `gopkg.in/go-playground/validator.v9`
var (
	authnValidator *validator.Validate
	validatorOnce  sync.Once
)

//‾‾‾‾‾‾‾‾‾‾‾‾‾‾‾‾‾‾‾‾‾‾‾‾‾‾‾‾‾‾‾‾‾‾‾‾‾‾‾‾‾‾‾‾‾‾‾‾‾‾‾‾‾‾‾‾‾‾‾‾‾‾‾‾‾‾‾‾‾‾‾‾‾‾‾‾‾‾
// Package methods
//______________________________________________________________________________

// Validator method return the shared validator instance.
//
// Field names in errors are taken from the `cfg` struct tag so messages
// point to the config key rather than the Go field.
func Validator() *validator.Validate {
	validatorOnce.Do(func() {
		authnValidator = validator.New()
		authnValidator.RegisterTagNameFunc(func(f reflect.StructField) string {
			name := strings.SplitN(f.Tag.Get("cfg"), ",", 2)[0]
			if name == "-" || len(name) == 0 {
				return f.Name
			}
			return name
		})
	})
	return authnValidator
}

// Validate method validates the given struct. It returns nil when valid,
// `Errors` for constraint violations and plain error for invalid input
// such as nil or non-struct.
func Validate(s interface{}) error {
	err := Validator().Struct(s)
	if err == nil {
		return nil
	}

	if ive, ok := err.(*validator.InvalidValidationError); ok {
		return errors.New(ive.Error())
	}

	var errs Errors
	for _, fe := range err.(validator.ValidationErrors) {
		errs = append(errs, &Error{
			Field:      fe.Field(),
			Value:      fmt.Sprintf("%v", fe.Value()),
			Constraint: fe.Tag(),
		})
	}
	return errs
}

// ValidateValue method is to validate individual value. Returns true if
// validation is passed otherwise false.
//
// For example:
//
// 	result := valpar.ValidateValue("/login.htm", "required,startswith=/")
func ValidateValue(v interface{}, constraint string) bool {
	return Validator().Var(v, constraint) == nil
}

//‾‾‾‾‾‾‾‾‾‾‾‾‾‾‾‾‾‾‾‾‾‾‾‾‾‾‾‾‾‾‾‾‾‾‾‾‾‾‾‾‾‾‾‾‾‾‾‾‾‾‾‾‾‾‾‾‾‾‾‾‾‾‾‾‾‾‾‾‾‾‾‾‾‾‾‾‾‾
// Error type and its methods
//______________________________________________________________________________

// Errors type represents list errors.
type Errors []*Error

// Error method is error interface.
func (e Errors) Error() string {
	return e.String()
}

// String is Stringer interface.
func (e Errors) String() string {
	if len(e) == 0 {
		return ""
	}

	var errs []string
	for _, er := range e {
		errs = append(errs, er.String())
	}
	return strings.Join(errs, ",")
}

// Error represents single validation error details.
type Error struct {
	Field      string
	Value      string
	Constraint string
}

// String is Stringer interface.
func (e Error) String() string {
	return fmt.Sprintf("error(field:%s value:%v constraint:%s)",
		e.Field, e.Value, e.Constraint)
}
