package flatfile

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/aanand-mishra/campus-records/internal/types"
)

// ErrMalformedRecord is returned when a line cannot be decoded. The loader
// skips such lines.
var ErrMalformedRecord = errors.New("malformed record")

const (
	separator = "|"
	// escapedSeparator replaces a literal '|' inside a text field.
	//
	// A field that itself contains "/|/", or that ends in '/' right before a
	// separator, does not survive a round trip. Kept for compatibility with
	// existing files.
	escapedSeparator = "/|/"

	bookFields   = 5
	memberFields = 4
)

func escape(s string) string   { return strings.ReplaceAll(s, separator, escapedSeparator) }
func unescape(s string) string { return strings.ReplaceAll(s, escapedSeparator, separator) }

// split breaks line on '|' separators, keeping every "/|/" token inside the
// current field. Fields come back still escaped.
func split(line string) []string {
	var (
		fields []string
		cur    strings.Builder
	)
	for i := 0; i < len(line); {
		if strings.HasPrefix(line[i:], escapedSeparator) {
			cur.WriteString(escapedSeparator)
			i += len(escapedSeparator)
			continue
		}
		if line[i] == separator[0] {
			fields = append(fields, cur.String())
			cur.Reset()
			i++
			continue
		}
		cur.WriteByte(line[i])
		i++
	}
	return append(fields, cur.String())
}

// EncodeBook renders b as id|title|author|category|issued.
func EncodeBook(b types.Book) string {
	return strings.Join([]string{
		strconv.Itoa(b.ID),
		escape(b.Title),
		escape(b.Author),
		escape(b.Category),
		strconv.FormatBool(b.Issued),
	}, separator)
}

// DecodeBook parses a line written by EncodeBook. Any issued flag other
// than "true", in any case, reads as not issued.
func DecodeBook(line string) (types.Book, error) {
	p := split(line)
	if len(p) < bookFields {
		return types.Book{}, fmt.Errorf("%w: book has %d fields, want %d", ErrMalformedRecord, len(p), bookFields)
	}

	id, err := strconv.Atoi(p[0])
	if err != nil {
		return types.Book{}, fmt.Errorf("%w: book id %q", ErrMalformedRecord, p[0])
	}
	return types.Book{
		ID:       id,
		Title:    unescape(p[1]),
		Author:   unescape(p[2]),
		Category: unescape(p[3]),
		Issued:   strings.EqualFold(p[4], "true"),
	}, nil
}

// EncodeMember renders m as id|name|email|csv-of-book-ids. The last field
// is empty when the member holds no books.
func EncodeMember(m types.Member) string {
	return strings.Join([]string{
		strconv.Itoa(m.ID),
		escape(m.Name),
		escape(m.Email),
		JoinIDs(m.IssuedBooks),
	}, separator)
}

// DecodeMember parses a line written by EncodeMember.
func DecodeMember(line string) (types.Member, error) {
	p := split(line)
	if len(p) < memberFields {
		return types.Member{}, fmt.Errorf("%w: member has %d fields, want %d", ErrMalformedRecord, len(p), memberFields)
	}

	id, err := strconv.Atoi(p[0])
	if err != nil {
		return types.Member{}, fmt.Errorf("%w: member id %q", ErrMalformedRecord, p[0])
	}
	ids, err := SplitIDs(p[3])
	if err != nil {
		return types.Member{}, err
	}

	return types.Member{
		ID:          id,
		Name:        unescape(p[1]),
		Email:       unescape(p[2]),
		IssuedBooks: ids,
	}, nil
}

// JoinIDs renders ids as a comma separated list.
func JoinIDs(ids []int) string {
	parts := make([]string, len(ids))
	for i, id := range ids {
		parts[i] = strconv.Itoa(id)
	}
	return strings.Join(parts, ",")
}

// SplitIDs parses a list written by JoinIDs. The empty string yields nil.
func SplitIDs(s string) ([]int, error) {
	if s == "" {
		return nil, nil
	}
	parts := strings.Split(s, ",")
	ids := make([]int, 0, len(parts))
	for _, part := range parts {
		id, err := strconv.Atoi(part)
		if err != nil {
			return nil, fmt.Errorf("%w: issued book id %q", ErrMalformedRecord, part)
		}
		ids = append(ids, id)
	}
	return ids, nil
}
