package get_availability

import "fmt"

// validateRequest валидирует входные данные запроса
func validateRequest(req *Request) error {
	if req.DoctorProfileID == nil && req.SpecialtyID == nil {
		return fmt.Errorf("%w: doctorProfileId or specialtyId is required", ErrInvalidInput)
	}

	if req.DoctorProfileID != nil && *req.DoctorProfileID <= 0 {
		return fmt.Errorf("%w: doctorProfileId must be positive", ErrInvalidInput)
	}

	if req.SpecialtyID != nil && *req.SpecialtyID <= 0 {
		return fmt.Errorf("%w: specialtyId must be positive", ErrInvalidInput)
	}

	if req.Date.IsZero() {
		return fmt.Errorf("%w: date is required", ErrInvalidInput)
	}

	return nil
}
