package schema

// synonyms.go holds the static synonym table used during header mapping.
//
// Labels are matched case- and separator-insensitively after normalization
// (see the ingest package), so synonyms here are written in the normalized
// lowercase-with-underscores form. The canonical field name itself is always
// an accepted label and does not need to be repeated here.

// Synonyms maps each canonical field to its accepted alternate labels.
// Static configuration data; callers must treat it as read-only.
var Synonyms = map[Field][]string{
	FieldType: {
		"instrument_type",
		"position_type",
		"side",
		"tipo",
	},
	FieldName: {
		"instrument",
		"instrument_name",
		"position",
		"position_name",
		"description",
		"nome",
	},
	FieldAmount: {
		"notional",
		"balance",
		"nominal",
		"amount_eur",
		"montante",
		"valor",
	},
	FieldRate: {
		"interest_rate",
		"coupon",
		"coupon_rate",
		"taxa",
	},
	FieldDuration: {
		"duration_years",
		"modified_duration",
		"duracao",
	},
	FieldCategory: {
		"cat",
		"portfolio",
		"book",
		"categoria",
	},
	FieldFixedFloat: {
		"fixed_floating",
		"fix_float",
		"rate_type",
		"fixed_or_float",
	},
	FieldFloatShare: {
		"floating_share",
		"float_pct",
		"floating_pct",
		"share_float",
	},
	FieldRepricingBucket: {
		"bucket",
		"repricing",
		"reprice_bucket",
		"repricing_band",
	},
	FieldDepositBeta: {
		"beta",
		"dep_beta",
	},
	FieldStability: {
		"stability_class",
		"core_noncore",
		"stickiness",
	},
	FieldConvexity: {
		"convex",
		"cvx",
	},
}

// SynonymsFor returns the accepted alternate labels for f.
// The returned slice is shared; callers must not modify it.
func SynonymsFor(f Field) []string {
	return Synonyms[f]
}
