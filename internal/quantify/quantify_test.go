package quantify

import (
	"time"

	"github.com/google/uuid"
	"github.com/saucecodee/praise/internal/domain"
)

var baseTime = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func newID(n byte) uuid.UUID {
	var id uuid.UUID
	id[15] = n
	return id
}

func quantifier(n byte) domain.User {
	return domain.User{ID: newID(n), Name: "q", Roles: []domain.Role{domain.RoleQuantifier}}
}

func quantifiers(ns ...byte) []domain.User {
	out := make([]domain.User, len(ns))
	for i, n := range ns {
		out[i] = quantifier(n)
	}
	return out
}

func praiseItem(id, giver, receiver byte, qs ...domain.Quantification) domain.Praise {
	p := domain.Praise{
		ID:         newID(id),
		GiverID:    newID(giver),
		ReceiverID: newID(receiver),
		Reason:     "for helping",
		CreatedAt:  baseTime.Add(time.Duration(id) * time.Minute),
	}
	for _, q := range qs {
		q.PraiseID = p.ID
		p.Quantifications = append(p.Quantifications, q)
	}
	return p
}

func scored(quantifierN byte, v float64) domain.Quantification {
	return domain.Quantification{QuantifierID: newID(quantifierN), Score: &v}
}

func dismissed(quantifierN byte) domain.Quantification {
	return domain.Quantification{QuantifierID: newID(quantifierN), Dismissed: true}
}

func duplicateOf(quantifierN, target byte) domain.Quantification {
	return domain.Quantification{QuantifierID: newID(quantifierN), DuplicatePraiseID: domain.ValidID(newID(target))}
}

func unscored(quantifierN byte) domain.Quantification {
	return domain.Quantification{QuantifierID: newID(quantifierN)}
}
