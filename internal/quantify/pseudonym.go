package quantify

import (
	"crypto/sha256"
	"encoding/binary"
	"slices"
	"strconv"

	"github.com/google/uuid"
	"github.com/saucecodee/praise/internal/domain"
)

var (
	adjectives = []string{
		"Amber", "Brave", "Calm", "Daring", "Eager", "Fuzzy", "Gentle", "Happy",
		"Icy", "Jolly", "Kind", "Lucky", "Mellow", "Nimble", "Odd", "Proud",
		"Quiet", "Rapid", "Sunny", "Tidy", "Upbeat", "Vivid", "Witty", "Zesty",
	}
	animals = []string{
		"Badger", "Crane", "Dingo", "Eagle", "Ferret", "Gecko", "Heron", "Ibis",
		"Jackal", "Koala", "Lemur", "Marten", "Newt", "Otter", "Puffin", "Quokka",
		"Raven", "Stoat", "Tapir", "Urchin", "Vole", "Walrus", "Yak", "Zebra",
	}
)

// Pseudonym returns a stable display name for receiverID within periodID.
// Different periods give the same receiver unrelated names.
func Pseudonym(periodID, receiverID uuid.UUID) string {
	h := sha256.New()
	h.Write(periodID[:])
	h.Write(receiverID[:])
	sum := h.Sum(nil)

	a := binary.BigEndian.Uint32(sum[0:4]) % uint32(len(adjectives))
	n := binary.BigEndian.Uint32(sum[4:8]) % uint32(len(animals))
	return adjectives[a] + " " + animals[n]
}

// Pseudonyms names every receiver in the snapshot. Receivers whose names
// collide get a numeric suffix in ID order, so within one snapshot no two
// receivers share a name.
func Pseudonyms(periodID uuid.UUID, praise []domain.Praise) map[uuid.UUID]string {
	var receivers []uuid.UUID
	seen := make(map[uuid.UUID]struct{})
	for _, p := range praise {
		if _, ok := seen[p.ReceiverID]; !ok {
			seen[p.ReceiverID] = struct{}{}
			receivers = append(receivers, p.ReceiverID)
		}
	}
	slices.SortFunc(receivers, domain.CompareIDs)

	out := make(map[uuid.UUID]string, len(receivers))
	taken := make(map[string]int)
	for _, id := range receivers {
		name := Pseudonym(periodID, id)
		taken[name]++
		if n := taken[name]; n > 1 {
			name += " " + strconv.Itoa(n)
		}
		out[id] = name
	}
	return out
}
