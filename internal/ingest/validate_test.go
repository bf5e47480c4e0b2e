package ingest

import (
	"testing"

	"github.com/gmaiocc/bank-stress-test-simulator/internal/schema"
)

func requiredHeaders() []string {
	headers := make([]string, len(schema.RequiredFields))
	for i, f := range schema.RequiredFields {
		headers[i] = string(f)
	}
	return headers
}

// goodRow matches requiredHeaders() column order.
func goodRow() RawRow {
	return RawRow{"loan", "A", "1000", "0.05", "12", "asset", "fixed", "0", "0-1m"}
}

func newTestValidator(t *testing.T, headers []string) *RowValidator {
	t.Helper()
	mapping := NewHeaderMapper(schema.Synonyms).Map(headers)
	return NewRowValidator(mapping)
}

func TestValidateRow_Accepts(t *testing.T) {
	v := newTestValidator(t, requiredHeaders())

	row, diags := v.ValidateRow(goodRow(), 1)
	if len(diags) != 0 {
		t.Fatalf("diagnostics = %v, want none", diags)
	}
	if row == nil {
		t.Fatal("expected a validated row")
	}

	if got := row[schema.FieldAmount]; got.Kind != ValueNumber || got.Num != 1000 {
		t.Errorf("amount = %+v, want number 1000", got)
	}
	if got := row[schema.FieldName]; got.Kind != ValueString || got.Str != "A" {
		t.Errorf("name = %+v, want string A", got)
	}

	// Absent optional numerics default to zero.
	if got := row[schema.FieldDepositBeta]; got.Kind != ValueNumber || got.Num != 0 {
		t.Errorf("deposit_beta = %+v, want number 0", got)
	}
	if got := row[schema.FieldConvexity]; got.Kind != ValueNumber || got.Num != 0 {
		t.Errorf("convexity = %+v, want number 0", got)
	}
}

func TestValidateRow_CasingNormalization(t *testing.T) {
	v := newTestValidator(t, requiredHeaders())

	raw := goodRow()
	raw[0] = "LOAN"  // type
	raw[5] = "asset" // category
	raw[6] = "FIXED" // fixed_float

	row, diags := v.ValidateRow(raw, 1)
	if len(diags) != 0 {
		t.Fatalf("diagnostics = %v, want none", diags)
	}
	if got := row[schema.FieldType].Str; got != "loan" {
		t.Errorf("type = %q, want lowercased %q", got, "loan")
	}
	if got := row[schema.FieldCategory].Str; got != "ASSET" {
		t.Errorf("category = %q, want uppercased %q", got, "ASSET")
	}
	if got := row[schema.FieldFixedFloat].Str; got != "fixed" {
		t.Errorf("fixed_float = %q, want lowercased %q", got, "fixed")
	}
}

func TestValidateRow_InvalidNumber(t *testing.T) {
	v := newTestValidator(t, requiredHeaders())

	raw := goodRow()
	raw[2] = "abc" // amount

	row, diags := v.ValidateRow(raw, 7)
	if row != nil {
		t.Error("row with invalid amount must be rejected")
	}
	if len(diags) != 1 {
		t.Fatalf("diagnostics = %v, want exactly one", diags)
	}
	if diags[0].Field != "amount" {
		t.Errorf("diagnostic field = %q, want amount", diags[0].Field)
	}
	if diags[0].RowIndex != 7 {
		t.Errorf("diagnostic rowIndex = %d, want 7", diags[0].RowIndex)
	}
}

func TestValidateRow_LocaleNumber(t *testing.T) {
	v := newTestValidator(t, requiredHeaders())

	raw := goodRow()
	raw[2] = "1.234.567,89" // amount

	row, diags := v.ValidateRow(raw, 1)
	if len(diags) != 0 {
		t.Fatalf("diagnostics = %v, want none", diags)
	}
	if got := row[schema.FieldAmount].Num; got != 1234567.89 {
		t.Errorf("amount = %v, want 1234567.89", got)
	}
}

func TestValidateRow_EmptyRequiredString(t *testing.T) {
	v := newTestValidator(t, requiredHeaders())

	raw := goodRow()
	raw[1] = "   " // name

	row, diags := v.ValidateRow(raw, 1)
	if row != nil {
		t.Error("row with empty required string must be rejected")
	}
	if len(diags) != 1 || diags[0].Field != "name" {
		t.Errorf("diagnostics = %v, want one for name", diags)
	}
}

func TestValidateRow_MultipleFailuresAllReported(t *testing.T) {
	v := newTestValidator(t, requiredHeaders())

	raw := goodRow()
	raw[2] = "abc" // amount
	raw[3] = ""    // rate

	row, diags := v.ValidateRow(raw, 3)
	if row != nil {
		t.Error("row must be rejected")
	}
	if len(diags) != 2 {
		t.Fatalf("diagnostics = %v, want two", diags)
	}
	fields := map[string]bool{}
	for _, d := range diags {
		fields[d.Field] = true
		if d.RowIndex != 3 {
			t.Errorf("rowIndex = %d, want 3", d.RowIndex)
		}
	}
	if !fields["amount"] || !fields["rate"] {
		t.Errorf("diagnostic fields = %v, want amount and rate", fields)
	}
}

func TestValidateRow_UnmappedRequiredColumn(t *testing.T) {
	// File without a rate column: every row fails rate.
	headers := []string{"type", "name", "amount", "duration", "category", "fixed_float", "float_share", "repricing_bucket"}
	v := newTestValidator(t, headers)

	row, diags := v.ValidateRow(RawRow{"loan", "A", "1000", "12", "asset", "fixed", "0", "0-1m"}, 1)
	if row != nil {
		t.Error("row must be rejected when a required column is unmapped")
	}
	if len(diags) != 1 || diags[0].Field != "rate" {
		t.Fatalf("diagnostics = %v, want one for rate", diags)
	}
	if diags[0].Message != "column not mapped" {
		t.Errorf("message = %q, want %q", diags[0].Message, "column not mapped")
	}
}

func TestValidateRow_InvalidOptionalNumber(t *testing.T) {
	headers := append(requiredHeaders(), "deposit_beta")
	v := newTestValidator(t, headers)

	raw := append(goodRow(), "not-a-number")
	row, diags := v.ValidateRow(raw, 1)
	if row != nil {
		t.Error("row with invalid optional number must be rejected")
	}
	if len(diags) != 1 || diags[0].Field != "deposit_beta" {
		t.Errorf("diagnostics = %v, want one for deposit_beta", diags)
	}
}

func TestValidateRow_PresentOptionalNumber(t *testing.T) {
	headers := append(requiredHeaders(), "deposit_beta", "stability")
	v := newTestValidator(t, headers)

	raw := append(goodRow(), "0.3", "CORE")
	row, diags := v.ValidateRow(raw, 1)
	if len(diags) != 0 {
		t.Fatalf("diagnostics = %v, want none", diags)
	}
	if got := row[schema.FieldDepositBeta].Num; got != 0.3 {
		t.Errorf("deposit_beta = %v, want 0.3", got)
	}
	if got := row[schema.FieldStability].Str; got != "core" {
		t.Errorf("stability = %q, want lowercased core", got)
	}
}

func TestSchemaDiagnostics(t *testing.T) {
	headers := []string{"type", "name", "amount"}
	v := newTestValidator(t, headers)

	diags := v.SchemaDiagnostics()
	if len(diags) != 1 {
		t.Fatalf("SchemaDiagnostics() = %v, want one", diags)
	}
	d := diags[0]
	if d.RowIndex != 0 {
		t.Errorf("rowIndex = %d, want 0", d.RowIndex)
	}
	if d.Field != SchemaField {
		t.Errorf("field = %q, want %q", d.Field, SchemaField)
	}
	want := "missing required columns: rate, duration, category, fixed_float, float_share, repricing_bucket"
	if d.Message != want {
		t.Errorf("message = %q, want %q", d.Message, want)
	}
}

func TestSchemaDiagnostics_NoneWhenComplete(t *testing.T) {
	v := newTestValidator(t, requiredHeaders())
	if diags := v.SchemaDiagnostics(); diags != nil {
		t.Errorf("SchemaDiagnostics() = %v, want nil", diags)
	}
}
