package roster

import (
	"rostering/pkg/apperror"
)

// maxReportedCells bounds the number of non-binary cells listed individually.
const maxReportedCells = 10

// Validate rejects malformed requests. Every violation is collected; the
// returned *apperror.Error carries the code of the first one and lists the
// rest under the "violations" detail. A positive horizon requires exactly
// that many periods.
func Validate(req Request, horizon int) error {
	v := apperror.NewValidationErrors()

	if req.Periods() == 0 || widest(req.Preferences) == 0 {
		v.AddErrorWithField(apperror.CodeEmptyPreferences,
			"preference matrix must have at least one period and one agent", "preferences")
	} else {
		validateMatrix(v, req.Preferences)
	}

	if horizon > 0 && req.Periods() != horizon {
		v.Add(apperror.Newf(apperror.CodeHorizonMismatch,
			"expected %d periods, got %d", horizon, req.Periods()).
			WithField("preferences").
			WithDetails("horizon", horizon).
			WithDetails("periods", req.Periods()))
	}

	if req.SysadminsPerNight <= 0 {
		v.Add(apperror.Newf(apperror.CodeInvalidStaffing,
			"sysadmins_per_night must be positive, got %d", req.SysadminsPerNight).
			WithField("sysadmins_per_night"))
	}
	if req.MaxUnwantedShifts < 0 {
		v.Add(apperror.Newf(apperror.CodeNegativeBound,
			"max_unwanted_shifts must be non-negative, got %d", req.MaxUnwantedShifts).
			WithField("max_unwanted_shifts"))
	}
	if req.MinShifts < 0 {
		v.Add(apperror.Newf(apperror.CodeNegativeBound,
			"min_shifts must be non-negative, got %d", req.MinShifts).
			WithField("min_shifts"))
	}

	return v.Err()
}

// widest returns the longest row length; rows shorter than it are ragged.
func widest(m Matrix) int {
	w := 0
	for _, row := range m {
		w = max(w, len(row))
	}
	return w
}

func validateMatrix(v *apperror.ValidationErrors, m Matrix) {
	width := widest(m)
	reported := 0

	for i, row := range m {
		if len(row) != width {
			v.Add(apperror.Newf(apperror.CodeRaggedPreferences,
				"row %d has %d columns, expected %d", i, len(row), width).
				WithField("preferences").
				WithDetails("row", i))
			continue
		}
		for j, cell := range row {
			if cell == 0 || cell == 1 {
				continue
			}
			if reported < maxReportedCells {
				v.Add(apperror.Newf(apperror.CodeNonBinaryPreference,
					"preferences[%d][%d] = %d, expected 0 or 1", i, j, cell).
					WithField("preferences").
					WithDetails("row", i).
					WithDetails("column", j).
					WithDetails("value", cell))
			}
			reported++
		}
	}
}

// CheckFeasible applies the arithmetic preconditions that make a network
// pointless to build. It returns a CodeInfeasibleInput error, or nil.
func CheckFeasible(req Request) *apperror.Error {
	required := req.RequiredFlow()
	guaranteed := int64(req.Agents()) * int64(req.MinShifts)

	if required < guaranteed {
		return apperror.Newf(apperror.CodeInfeasibleInput,
			"%d periods × %d per night = %d shifts cannot cover %d agents × %d minimum = %d",
			req.Periods(), req.SysadminsPerNight, required,
			req.Agents(), req.MinShifts, guaranteed).
			WithDetails("required", required).
			WithDetails("guaranteed", guaranteed)
	}
	if req.MinShifts > req.Periods() {
		return apperror.Newf(apperror.CodeInfeasibleInput,
			"min_shifts %d exceeds the %d available periods", req.MinShifts, req.Periods()).
			WithField("min_shifts")
	}
	return nil
}
