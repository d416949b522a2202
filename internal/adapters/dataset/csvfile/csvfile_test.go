package csvfile

import (
	"io"
	"strings"
	"testing"

	perr "zeroshot/internal/platform/errors"
	kit "zeroshot/internal/platform/testkit"
)

func readAll(t *testing.T, rd *Reader) []Row {
	t.Helper()
	var rows []Row
	for {
		row, err := rd.Next()
		if err == io.EOF {
			return rows
		}
		if err != nil {
			t.Fatalf("next: %v", err)
		}
		rows = append(rows, row)
	}
}

func TestReadWithHeader(t *testing.T) {
	t.Parallel()

	in := io.NopCloser(strings.NewReader("id,text\nr1,hello world\nr2,second row\n"))
	rd, err := NewReader(in, Options{IDColumn: "id"})
	if err != nil {
		t.Fatalf("new reader: %v", err)
	}
	defer rd.Close()

	rows := readAll(t, rd)
	if len(rows) != 2 {
		t.Fatalf("rows = %+v", rows)
	}
	if rows[0].Line != 1 || rows[0].ID != "r1" || rows[0].Text != "hello world" {
		t.Fatalf("row 1 = %+v", rows[0])
	}
	if rows[1].Line != 2 || rows[1].ID != "r2" {
		t.Fatalf("row 2 = %+v", rows[1])
	}
}

func TestReadHeaderCaseInsensitive(t *testing.T) {
	t.Parallel()

	in := io.NopCloser(strings.NewReader("Text\nhello\n"))
	rd, err := NewReader(in, Options{})
	if err != nil {
		t.Fatalf("new reader: %v", err)
	}
	defer rd.Close()

	rows := readAll(t, rd)
	if len(rows) != 1 || rows[0].Text != "hello" {
		t.Fatalf("rows = %+v", rows)
	}
}

func TestReadCustomTextColumn(t *testing.T) {
	t.Parallel()

	in := io.NopCloser(strings.NewReader("body,lang\nbonjour,fr\n"))
	rd, err := NewReader(in, Options{TextColumn: "body"})
	if err != nil {
		t.Fatalf("new reader: %v", err)
	}
	defer rd.Close()

	rows := readAll(t, rd)
	if len(rows) != 1 || rows[0].Text != "bonjour" {
		t.Fatalf("rows = %+v", rows)
	}
}

func TestHeaderlessSingleColumn(t *testing.T) {
	t.Parallel()

	in := io.NopCloser(strings.NewReader("first line\nsecond line\n"))
	rd, err := NewReader(in, Options{})
	if err != nil {
		t.Fatalf("new reader: %v", err)
	}
	defer rd.Close()

	rows := readAll(t, rd)
	if len(rows) != 2 || rows[0].Text != "first line" || rows[1].Text != "second line" {
		t.Fatalf("rows = %+v", rows)
	}
	if rows[0].Line != 1 || rows[1].Line != 2 {
		t.Fatalf("line numbers = %d, %d", rows[0].Line, rows[1].Line)
	}
}

func TestMissingTextColumn(t *testing.T) {
	t.Parallel()

	in := io.NopCloser(strings.NewReader("a,b\n1,2\n"))
	_, err := NewReader(in, Options{})
	if !perr.IsCode(err, perr.ErrorCodeInvalidArgument) {
		t.Fatalf("want invalid argument, got %v", err)
	}
	kit.MustContain(t, err.Error(), "text")
}

func TestMissingIDColumn(t *testing.T) {
	t.Parallel()

	in := io.NopCloser(strings.NewReader("text\nhello\n"))
	_, err := NewReader(in, Options{IDColumn: "id"})
	if !perr.IsCode(err, perr.ErrorCodeInvalidArgument) {
		t.Fatalf("want invalid argument, got %v", err)
	}
}

func TestEmptyFile(t *testing.T) {
	t.Parallel()

	rd, err := NewReader(io.NopCloser(strings.NewReader("")), Options{})
	if err != nil {
		t.Fatalf("new reader: %v", err)
	}
	defer rd.Close()

	if _, err := rd.Next(); err != io.EOF {
		t.Fatalf("want io.EOF, got %v", err)
	}
}

func TestQuotedFieldWithComma(t *testing.T) {
	t.Parallel()

	in := io.NopCloser(strings.NewReader("text\n\"hello, world\"\n"))
	rd, err := NewReader(in, Options{})
	if err != nil {
		t.Fatalf("new reader: %v", err)
	}
	defer rd.Close()

	rows := readAll(t, rd)
	if len(rows) != 1 || rows[0].Text != "hello, world" {
		t.Fatalf("rows = %+v", rows)
	}
}
