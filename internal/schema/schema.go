// Package schema defines the canonical balance-sheet column schema.
//
// Every uploaded file is reconciled against this schema: arbitrary header
// labels are mapped to canonical fields through the synonym table, and each
// field carries a scalar kind (string or number) used during row validation.
// The schema is immutable, process-wide configuration; nothing in this
// package mutates after init.
package schema

// Field is a canonical balance-sheet column name, independent of how the
// source file labeled it.
type Field string

// Required fields. A row is only accepted when every one of these parses.
const (
	FieldType            Field = "type"
	FieldName            Field = "name"
	FieldAmount          Field = "amount"
	FieldRate            Field = "rate"
	FieldDuration        Field = "duration"
	FieldCategory        Field = "category"
	FieldFixedFloat      Field = "fixed_float"
	FieldFloatShare      Field = "float_share"
	FieldRepricingBucket Field = "repricing_bucket"
)

// Optional fields. Validated only when present.
const (
	FieldDepositBeta Field = "deposit_beta"
	FieldStability   Field = "stability"
	FieldConvexity   Field = "convexity"
)

// Kind is the scalar kind a field's values must coerce to.
type Kind int

const (
	KindString Kind = iota
	KindNumber
)

// RequiredFields lists the nine required fields in canonical column order.
var RequiredFields = []Field{
	FieldType,
	FieldName,
	FieldAmount,
	FieldRate,
	FieldDuration,
	FieldCategory,
	FieldFixedFloat,
	FieldFloatShare,
	FieldRepricingBucket,
}

// OptionalFields lists the three optional fields in canonical column order.
var OptionalFields = []Field{
	FieldDepositBeta,
	FieldStability,
	FieldConvexity,
}

// AllFields is RequiredFields followed by OptionalFields.
var AllFields = append(append([]Field{}, RequiredFields...), OptionalFields...)

var kinds = map[Field]Kind{
	FieldType:            KindString,
	FieldName:            KindString,
	FieldAmount:          KindNumber,
	FieldRate:            KindNumber,
	FieldDuration:        KindNumber,
	FieldCategory:        KindString,
	FieldFixedFloat:      KindString,
	FieldFloatShare:      KindNumber,
	FieldRepricingBucket: KindString,
	FieldDepositBeta:     KindNumber,
	FieldStability:       KindString,
	FieldConvexity:       KindNumber,
}

var required = map[Field]bool{
	FieldType:            true,
	FieldName:            true,
	FieldAmount:          true,
	FieldRate:            true,
	FieldDuration:        true,
	FieldCategory:        true,
	FieldFixedFloat:      true,
	FieldFloatShare:      true,
	FieldRepricingBucket: true,
}

// KindOf returns the scalar kind of a canonical field.
func KindOf(f Field) Kind {
	return kinds[f]
}

// IsRequired reports whether f is one of the nine required fields.
func IsRequired(f Field) bool {
	return required[f]
}

// IsKnown reports whether f is a canonical field of this schema.
func IsKnown(f Field) bool {
	_, ok := kinds[f]
	return ok
}

func (k Kind) String() string {
	switch k {
	case KindString:
		return "string"
	case KindNumber:
		return "number"
	default:
		return "unknown"
	}
}
