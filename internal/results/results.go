// Package results keeps student exam results in memory.
//
// An Engine is not safe for concurrent use; the menu loop that drives it
// runs every operation to completion before reading the next choice.
package results

import (
	"errors"
	"fmt"

	"github.com/go-playground/validator/v10"

	"github.com/aanand-mishra/campus-records/internal/types"
	"github.com/aanand-mishra/campus-records/internal/utils/response"
)

var (
	// ErrInvalidMarks is returned when a mark falls outside [0,100].
	ErrInvalidMarks = errors.New("invalid marks")

	// ErrStudentNotFound is returned when no student has the given roll.
	ErrStudentNotFound = errors.New("student not found")
)

// Engine holds students in insertion order.
type Engine struct {
	students []types.Student
}

// New returns an empty Engine.
func New() *Engine {
	return &Engine{}
}

// AddStudent validates the marks and appends a new student. Nothing is
// added when validation fails.
func (e *Engine) AddStudent(roll int, name string, marks [3]int) (types.Student, error) {
	s := types.Student{Roll: roll, Name: name, Marks: marks}

	if err := types.Validate(s); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			return types.Student{}, fmt.Errorf("%w: %s", ErrInvalidMarks, response.ValidationError(verrs))
		}
		return types.Student{}, fmt.Errorf("AddStudent: validate: %w", err)
	}

	e.students = append(e.students, s)
	return s, nil
}

// FindByRoll returns the first student added with the given roll.
// Rolls are expected to be unique but this is not enforced.
func (e *Engine) FindByRoll(roll int) (types.Student, error) {
	for _, s := range e.students {
		if s.Roll == roll {
			return s, nil
		}
	}
	return types.Student{}, fmt.Errorf("%w: roll %d", ErrStudentNotFound, roll)
}

// Students returns every student in insertion order.
func (e *Engine) Students() []types.Student {
	out := make([]types.Student, len(e.students))
	copy(out, e.students)
	return out
}

// Average is the mean of the student's three marks.
func Average(s types.Student) float64 { return s.Average() }

// Result is Fail if any mark is below the pass mark, Pass otherwise.
func Result(s types.Student) types.Outcome { return s.Result() }
