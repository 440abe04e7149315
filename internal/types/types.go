// Package types holds the record structures shared by the result engine,
// the library store, and the storage backends. Keeping them in one place
// prevents import cycles: storage and cli can both import types without
// depending on each other.
package types

import (
	"strings"
	"unicode/utf16"

	"github.com/go-playground/validator/v10"
)

// Outcome is the derived pass/fail verdict for a student.
type Outcome string

const (
	Pass Outcome = "Pass"
	Fail Outcome = "Fail"
)

// PassMark is the lowest mark a student may score in every subject and
// still pass.
const PassMark = 35

// Student represents one exam result.
//
// Struct tags are checked by the go-playground/validator package:
// "dive" applies the following rules to every element of Marks.
type Student struct {
	Roll  int    `json:"roll"`
	Name  string `json:"name"`
	Marks [3]int `json:"marks" validate:"dive,min=0,max=100"`
}

// Average returns the exact mean of the three marks.
func (s Student) Average() float64 {
	return float64(s.Marks[0]+s.Marks[1]+s.Marks[2]) / 3.0
}

// Result returns Fail if any mark is below PassMark.
func (s Student) Result() Outcome {
	for _, m := range s.Marks {
		if m < PassMark {
			return Fail
		}
	}
	return Pass
}

// Book is a library book. Issued is true iff exactly one member currently
// holds it.
type Book struct {
	ID       int    `json:"id"`
	Title    string `json:"title"`
	Author   string `json:"author"`
	Category string `json:"category"`
	Issued   bool   `json:"issued"`
}

// Member is a library member. IssuedBooks lists the ids of the books the
// member currently holds, in the order they were issued.
type Member struct {
	ID          int    `json:"id"`
	Name        string `json:"name"`
	Email       string `json:"email" validate:"libemail"`
	IssuedBooks []int  `json:"issued_books"`
}

// Clone returns a copy of m that shares no memory with it.
func (m Member) Clone() Member {
	if m.IssuedBooks != nil {
		m.IssuedBooks = append([]int(nil), m.IssuedBooks...)
	}
	return m
}

// validate is safe for concurrent use and caches struct metadata, so one
// instance serves the whole process.
var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	// "libemail" is the library's own check: it must contain '@' and '.'
	// and be at least five characters long. Nothing stricter.
	_ = v.RegisterValidation("libemail", func(fl validator.FieldLevel) bool {
		return ValidEmail(fl.Field().String())
	})
	return v
}

// ValidEmail reports whether e passes the library's email rule. Length is
// counted in UTF-16 code units, so a character outside the BMP counts twice.
func ValidEmail(e string) bool {
	return strings.Contains(e, "@") &&
		strings.Contains(e, ".") &&
		len(utf16.Encode([]rune(e))) >= 5
}

// Validate checks every validate:"..." tag on v. The returned error, when
// not nil, is a validator.ValidationErrors.
func Validate(v any) error {
	return validate.Struct(v)
}
