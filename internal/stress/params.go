// Package stress is the boundary to the external stress-calculation service.
// The service receives the original raw CSV text plus a parameter object and
// returns equity and per-shock results; nothing beyond call success and the
// result-array shape is validated here.
package stress

import "fmt"

// Params is the stress-scenario parameter object sent alongside the CSV.
type Params struct {
	ShocksBps          []float64 `json:"shocks_bps"`
	AFSHaircut         float64   `json:"afs_haircut"`
	DepositRunoff      float64   `json:"deposit_runoff"`
	DepositBetaCore    float64   `json:"deposit_beta_core"`
	DepositBetaNonCore float64   `json:"deposit_beta_noncore"`
	LagMonths          int       `json:"lag_months"`
}

// DefaultParams returns the standard scenario set.
func DefaultParams() Params {
	return Params{
		ShocksBps:          []float64{-200, -100, 0, 100, 200, 300},
		AFSHaircut:         0.10,
		DepositRunoff:      0.15,
		DepositBetaCore:    0.30,
		DepositBetaNonCore: 0.60,
		LagMonths:          1,
	}
}

// Validate checks the parameter bounds the service enforces.
func (p Params) Validate() error {
	if len(p.ShocksBps) == 0 {
		return fmt.Errorf("shocks_bps must not be empty")
	}
	if p.AFSHaircut < 0 || p.AFSHaircut > 0.5 {
		return fmt.Errorf("afs_haircut %v out of range [0, 0.5]", p.AFSHaircut)
	}
	if p.DepositRunoff < 0 || p.DepositRunoff > 1 {
		return fmt.Errorf("deposit_runoff %v out of range [0, 1]", p.DepositRunoff)
	}
	if p.DepositBetaCore < 0 || p.DepositBetaCore > 1 {
		return fmt.Errorf("deposit_beta_core %v out of range [0, 1]", p.DepositBetaCore)
	}
	if p.DepositBetaNonCore < 0 || p.DepositBetaNonCore > 1 {
		return fmt.Errorf("deposit_beta_noncore %v out of range [0, 1]", p.DepositBetaNonCore)
	}
	if p.LagMonths < 0 || p.LagMonths > 12 {
		return fmt.Errorf("lag_months %d out of range [0, 12]", p.LagMonths)
	}
	return nil
}

// ShockResult is one per-shock outcome from the service.
type ShockResult struct {
	ShockBps     float64 `json:"shock_bps"`
	EVEChange    float64 `json:"eve_change"`
	EVEPctEquity float64 `json:"eve_pct_equity"`
	NIIDelta     float64 `json:"nii_delta"`
	LCRHQLA      float64 `json:"lcr_hqla"`
	LCROutflows  float64 `json:"lcr_outflows"`
	LCRCoverage  float64 `json:"lcr_coverage"`
}

// Outcome is the full service response.
type Outcome struct {
	Equity  float64       `json:"equity"`
	Results []ShockResult `json:"results"`
}
