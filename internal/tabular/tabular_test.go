package tabular

import "testing"

func TestParseBasic(t *testing.T) {
	text := "student_id,student_name,is_correct\nSTU001,Thabo Nkosi,1\nSTU002,Lerato Dlamini,0\n"
	rows := Parse(text)
	if len(rows) != 2 {
		t.Fatalf("expected 2 rows, got %d", len(rows))
	}

	id, ok := rows[0].Field("student_id")
	if !ok || id != "STU001" {
		t.Errorf("expected student_id STU001, got %q (present=%v)", id, ok)
	}
	name, ok := rows[1].Field("student_name")
	if !ok || name != "Lerato Dlamini" {
		t.Errorf("expected student_name 'Lerato Dlamini', got %q (present=%v)", name, ok)
	}
	if rows[0].Len() != 3 {
		t.Errorf("expected 3 fields, got %d", rows[0].Len())
	}
}

func TestParseTrimsWhitespace(t *testing.T) {
	text := " student_id , is_correct \n  STU001 ,  1  \n"
	rows := Parse(text)
	if len(rows) != 1 {
		t.Fatalf("expected 1 row, got %d", len(rows))
	}
	id, ok := rows[0].Field("student_id")
	if !ok || id != "STU001" {
		t.Errorf("expected trimmed student_id STU001, got %q", id)
	}
	c, ok := rows[0].Field("is_correct")
	if !ok || c != "1" {
		t.Errorf("expected trimmed is_correct '1', got %q", c)
	}
}

func TestParseShortRow(t *testing.T) {
	text := "a,b,c\n1,2\n"
	rows := Parse(text)
	if len(rows) != 1 {
		t.Fatalf("expected 1 row, got %d", len(rows))
	}

	if v, ok := rows[0].Field("b"); !ok || v != "2" {
		t.Errorf("expected b=2, got %q (present=%v)", v, ok)
	}
	// The missing trailing column is absent, not empty.
	if v, ok := rows[0].Field("c"); ok {
		t.Errorf("expected c absent, got %q", v)
	}
	if rows[0].Len() != 2 {
		t.Errorf("expected 2 fields present, got %d", rows[0].Len())
	}
}

func TestParseExtraFieldsDropped(t *testing.T) {
	text := "a,b\n1,2,3,4\n"
	rows := Parse(text)
	if len(rows) != 1 {
		t.Fatalf("expected 1 row, got %d", len(rows))
	}
	if rows[0].Len() != 2 {
		t.Errorf("expected 2 fields, got %d", rows[0].Len())
	}
}

func TestParseBlankTrailingLines(t *testing.T) {
	text := "a,b\n1,2\n\n\n"
	rows := Parse(text)
	if len(rows) != 1 {
		t.Fatalf("expected 1 row after trailing blanks, got %d", len(rows))
	}
}

func TestParseEmptyInput(t *testing.T) {
	for _, text := range []string{"", "   ", "\n\n"} {
		if rows := Parse(text); rows != nil {
			t.Errorf("Parse(%q) = %v, want nil", text, rows)
		}
	}
}

func TestParseHeaderOnly(t *testing.T) {
	rows := Parse("a,b,c\n")
	if len(rows) != 0 {
		t.Fatalf("expected 0 rows for header-only input, got %d", len(rows))
	}
}

func TestParseUnknownField(t *testing.T) {
	rows := Parse("a\n1\n")
	if v, ok := rows[0].Field("missing"); ok {
		t.Errorf("expected missing field to be absent, got %q", v)
	}
}

func TestParseCRLF(t *testing.T) {
	text := "a,b\r\n1,2\r\n"
	rows := Parse(text)
	if len(rows) != 1 {
		t.Fatalf("expected 1 row, got %d", len(rows))
	}
	if v, ok := rows[0].Field("b"); !ok || v != "2" {
		t.Errorf("expected b=2 with CRLF input, got %q (present=%v)", v, ok)
	}
}
