// Package response provides helpers for writing consistent console output.
//
// Every menu action ends by printing either a record, a confirmation, or an
// error. Rather than repeating the same Fprintf lines in every action, we
// centralise the record layouts here so both menus and the tests agree on
// exactly what a book, member, or student looks like on screen.
package response

import (
	"fmt"
	"io"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/aanand-mishra/campus-records/internal/types"
)

// ─────────────────────────────────────────────────────────────────────────────
// FormatBook renders a book on one line:
//
//	ID:101 | Dune | Herbert | SciFi | Issued:false
//
// ─────────────────────────────────────────────────────────────────────────────
func FormatBook(b types.Book) string {
	return fmt.Sprintf("ID:%d | %s | %s | %s | Issued:%t",
		b.ID, b.Title, b.Author, b.Category, b.Issued)
}

// ─────────────────────────────────────────────────────────────────────────────
// FormatMember renders a member on one line:
//
//	ID:201 | Asha | asha@x.in | IssuedBooks:[101, 102]
//
// An empty list renders as [].
// ─────────────────────────────────────────────────────────────────────────────
func FormatMember(m types.Member) string {
	ids := make([]string, len(m.IssuedBooks))
	for i, id := range m.IssuedBooks {
		ids[i] = fmt.Sprint(id)
	}
	return fmt.Sprintf("ID:%d | %s | %s | IssuedBooks:[%s]",
		m.ID, m.Name, m.Email, strings.Join(ids, ", "))
}

// FormatStudent renders a student as a multi-line block with the derived
// average and result.
func FormatStudent(s types.Student) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Roll: %d\n", s.Roll)
	fmt.Fprintf(&b, "Name: %s\n", s.Name)
	fmt.Fprintf(&b, "Marks: %d %d %d\n", s.Marks[0], s.Marks[1], s.Marks[2])
	fmt.Fprintf(&b, "Average: %.2f\n", s.Average())
	fmt.Fprintf(&b, "Result: %s", s.Result())
	return b.String()
}

// Books writes one line per book, or "No results." for an empty slice.
func Books(w io.Writer, books []types.Book) {
	if len(books) == 0 {
		fmt.Fprintln(w, "No results.")
		return
	}
	for _, b := range books {
		fmt.Fprintln(w, FormatBook(b))
	}
}

// Members writes one line per member.
func Members(w io.Writer, members []types.Member) {
	for _, m := range members {
		fmt.Fprintln(w, FormatMember(m))
	}
}

// OK writes a confirmation line.
func OK(w io.Writer, format string, args ...any) {
	fmt.Fprintf(w, format+"\n", args...)
}

// Error writes err as a single "Error: ..." line. The message always
// carries the failure kind because every domain error wraps a sentinel.
func Error(w io.Writer, err error) {
	fmt.Fprintf(w, "Error: %s\n", err.Error())
}

// ─────────────────────────────────────────────────────────────────────────────
// ValidationError converts a slice of validator.FieldError values into
// a single human-readable sentence.
//
// The go-playground/validator package returns one FieldError per failing
// field (or, with "dive", per failing element). We convert each to plain
// English and join them with ", ".
//
// Example output:
//
//	field Marks[1] must be between 0 and 100, field Marks[2] must be between 0 and 100
//
// ─────────────────────────────────────────────────────────────────────────────
func ValidationError(errs validator.ValidationErrors) string {
	var errMessages []string

	for _, e := range errs {
		switch e.ActualTag() {
		// "min"/"max" on marks: both bounds are reported together
		case "min", "max":
			errMessages = append(errMessages,
				fmt.Sprintf("field %s must be between 0 and 100", e.Field()))
		// "libemail" is the library's own email rule
		case "libemail":
			errMessages = append(errMessages,
				fmt.Sprintf("field %s must contain '@' and '.' and be at least 5 characters", e.Field()))
		case "required":
			errMessages = append(errMessages,
				fmt.Sprintf("field %s is required", e.Field()))
		default:
			errMessages = append(errMessages,
				fmt.Sprintf("field %s is invalid", e.Field()))
		}
	}

	return strings.Join(errMessages, ", ")
}
