package inventory

import (
	"ms-registration/internal/models"
)

// Enrollment is the derived participant count for a workshop or milonga.
// It is recomputed from the live registration set on every read and never
// cached, so it cannot drift from the registrations it is derived from.
type Enrollment struct {
	Total     int `json:"total"`
	Leaders   int `json:"leaders"`
	Followers int `json:"followers"`
}

// ComputeEnrollment folds over the given registrations and counts every
// live one that references resourceID in its workshop or milonga
// selections. A couple contributes one leader, one follower and two to the
// total; a solo registrant contributes one to their side and the total.
func ComputeEnrollment(resourceID string, registrations []models.Registration) Enrollment {
	var e Enrollment
	for _, reg := range registrations {
		if !reg.DeletedAt.IsZero() {
			continue
		}
		if !references(reg, resourceID) {
			continue
		}
		switch reg.Role {
		case models.RoleCouple:
			e.Leaders++
			e.Followers++
			e.Total += 2
		case models.RoleLeader:
			e.Leaders++
			e.Total++
		case models.RoleFollower:
			e.Followers++
			e.Total++
		}
	}
	return e
}

func references(reg models.Registration, resourceID string) bool {
	for _, id := range reg.WorkshopIDs {
		if id == resourceID {
			return true
		}
	}
	for _, id := range reg.MilongaIDs {
		if id == resourceID {
			return true
		}
	}
	return false
}
