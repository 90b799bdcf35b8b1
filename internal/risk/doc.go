// Package risk computes payroll coverage risk for a company.
//
// Everything here is a pure function of its inputs (plus an injectable clock in
// Assessor), so it is safe to call from any number of goroutines without locking.
// Required float, tiering and projections share one threshold implementation,
// DetermineRiskLevel.
package risk
