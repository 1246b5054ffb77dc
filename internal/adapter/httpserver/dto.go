package httpserver

import (
	"time"

	"github.com/google/uuid"

	"github.com/saucecodee/praise/internal/analytics"
	"github.com/saucecodee/praise/internal/app"
	"github.com/saucecodee/praise/internal/domain"
)

type periodRequest struct {
	Name    string    `json:"name"`
	EndDate time.Time `json:"end_date"`
}

type periodResponse struct {
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"name"`
	Status    string    `json:"status"`
	EndDate   time.Time `json:"end_date"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func newPeriodResponse(p domain.Period) periodResponse {
	return periodResponse{
		ID:        p.ID,
		Name:      p.Name,
		Status:    string(p.Status),
		EndDate:   p.EndDate,
		CreatedAt: p.CreatedAt,
		UpdatedAt: p.UpdatedAt,
	}
}

type poolSizeResponse struct {
	QuantifierPoolSize int  `json:"quantifier_pool_size"`
	RequiredPoolSize   int  `json:"required_pool_size"`
	Sufficient         bool `json:"sufficient"`
}

type settingValueRequest struct {
	Value string `json:"value"`
}

type settingResponse struct {
	ID          uuid.UUID     `json:"id"`
	Key         string        `json:"key"`
	Value       string        `json:"value"`
	Type        string        `json:"type"`
	Label       string        `json:"label"`
	Description string        `json:"description"`
	PeriodID    uuid.NullUUID `json:"period_id"`
}

func newSettingResponse(s domain.Setting) settingResponse {
	return settingResponse{
		ID:          s.ID,
		Key:         s.Key,
		Value:       s.Value,
		Type:        string(s.Type),
		Label:       s.Label,
		Description: s.Description,
		PeriodID:    s.PeriodID,
	}
}

func newSettingResponses(settings []domain.Setting) []settingResponse {
	out := make([]settingResponse, len(settings))
	for i, s := range settings {
		out[i] = newSettingResponse(s)
	}
	return out
}

type createPraiseRequest struct {
	// GiverID is set when the caller forwards praise on behalf of someone else.
	GiverID     *uuid.UUID  `json:"giver_id"`
	ReceiverIDs []uuid.UUID `json:"receiver_ids"`
	Reason      string      `json:"reason"`
	SourceID    string      `json:"source_id"`
	SourceName  string      `json:"source_name"`
}

type quantifyRequest struct {
	Score             *float64   `json:"score"`
	Dismissed         bool       `json:"dismissed"`
	DuplicatePraiseID *uuid.UUID `json:"duplicate_praise_id"`
}

func (r quantifyRequest) outcome() domain.Outcome {
	o := domain.Outcome{Score: r.Score, Dismissed: r.Dismissed}
	if r.DuplicatePraiseID != nil {
		o.DuplicateOf = domain.ValidID(*r.DuplicatePraiseID)
	}
	return o
}

type quantificationResponse struct {
	PraiseID          uuid.UUID     `json:"praise_id"`
	QuantifierID      uuid.UUID     `json:"quantifier_id"`
	Score             *float64      `json:"score"`
	Dismissed         bool          `json:"dismissed"`
	DuplicatePraiseID uuid.NullUUID `json:"duplicate_praise_id"`
	Finished          bool          `json:"finished"`
	UpdatedAt         time.Time     `json:"updated_at"`
}

func newQuantificationResponse(q domain.Quantification) quantificationResponse {
	return quantificationResponse{
		PraiseID:          q.PraiseID,
		QuantifierID:      q.QuantifierID,
		Score:             q.Score,
		Dismissed:         q.Dismissed,
		DuplicatePraiseID: q.DuplicatePraiseID,
		Finished:          q.Finished(),
		UpdatedAt:         q.UpdatedAt,
	}
}

func newQuantificationResponses(qs []domain.Quantification) []quantificationResponse {
	out := make([]quantificationResponse, len(qs))
	for i, q := range qs {
		out[i] = newQuantificationResponse(q)
	}
	return out
}

type praiseResponse struct {
	ID                uuid.UUID                `json:"id"`
	GiverID           uuid.UUID                `json:"giver_id"`
	ReceiverID        uuid.UUID                `json:"receiver_id,omitzero"`
	ReceiverPseudonym string                   `json:"receiver_pseudonym,omitempty"`
	ForwarderID       uuid.NullUUID            `json:"forwarder_id"`
	Reason            string                   `json:"reason"`
	ReasonRealized    string                   `json:"reason_realized"`
	SourceID          string                   `json:"source_id"`
	SourceName        string                   `json:"source_name"`
	Score             *float64                 `json:"score"`
	CreatedAt         time.Time                `json:"created_at"`
	Quantifications   []quantificationResponse `json:"quantifications"`
}

func newPraiseResponse(p domain.Praise) praiseResponse {
	return praiseResponse{
		ID:              p.ID,
		GiverID:         p.GiverID,
		ReceiverID:      p.ReceiverID,
		ForwarderID:     p.ForwarderID,
		Reason:          p.Reason,
		ReasonRealized:  p.ReasonRealized,
		SourceID:        p.SourceID,
		SourceName:      p.SourceName,
		Score:           p.Score,
		CreatedAt:       p.CreatedAt,
		Quantifications: newQuantificationResponses(p.Quantifications),
	}
}

func newPraiseResponses(praise []domain.Praise) []praiseResponse {
	out := make([]praiseResponse, len(praise))
	for i, p := range praise {
		out[i] = newPraiseResponse(p)
	}
	return out
}

// newAssignedPraiseResponse hides the receiver when a pseudonym is in use.
func newAssignedPraiseResponse(a app.AssignedPraise) praiseResponse {
	resp := newPraiseResponse(a.Praise)
	if a.ReceiverPseudonym != "" {
		resp.ReceiverID = uuid.Nil
		resp.ReceiverPseudonym = a.ReceiverPseudonym
	}
	return resp
}

type createPraiseResponse struct {
	Praise            []praiseResponse `json:"praise"`
	SelfPraiseSkipped bool             `json:"self_praise_skipped"`
}

type quantifierProgressResponse struct {
	QuantifierID  uuid.UUID `json:"quantifier_id"`
	FinishedCount int       `json:"finished_count"`
	PraiseCount   int       `json:"praise_count"`
}

type receiverSummaryResponse struct {
	ReceiverID      uuid.UUID                  `json:"receiver_id"`
	PraiseCount     int                        `json:"praise_count"`
	ScoreRealized   float64                    `json:"score_realized"`
	Quantifications [][]quantificationResponse `json:"quantifications"`
}

type giverSummaryResponse struct {
	GiverID       uuid.UUID `json:"giver_id"`
	PraiseCount   int       `json:"praise_count"`
	ScoreRealized float64   `json:"score_realized"`
}

type periodDetailsResponse struct {
	Period      periodResponse               `json:"period"`
	Quantifiers []quantifierProgressResponse `json:"quantifiers"`
	Receivers   []receiverSummaryResponse    `json:"receivers"`
	Givers      []giverSummaryResponse       `json:"givers"`
	Redacted    bool                         `json:"redacted"`
}

func newPeriodDetailsResponse(d domain.PeriodDetails) periodDetailsResponse {
	resp := periodDetailsResponse{
		Period:      newPeriodResponse(d.Period),
		Quantifiers: make([]quantifierProgressResponse, len(d.Quantifiers)),
		Receivers:   make([]receiverSummaryResponse, len(d.Receivers)),
		Givers:      make([]giverSummaryResponse, len(d.Givers)),
		Redacted:    d.Redacted,
	}
	for i, q := range d.Quantifiers {
		resp.Quantifiers[i] = quantifierProgressResponse(q)
	}
	for i, r := range d.Receivers {
		qs := make([][]quantificationResponse, len(r.Quantifications))
		for j, perPraise := range r.Quantifications {
			qs[j] = newQuantificationResponses(perPraise)
		}
		resp.Receivers[i] = receiverSummaryResponse{
			ReceiverID:      r.ReceiverID,
			PraiseCount:     r.PraiseCount,
			ScoreRealized:   r.ScoreRealized,
			Quantifications: qs,
		}
	}
	for i, g := range d.Givers {
		resp.Givers[i] = giverSummaryResponse(g)
	}
	return resp
}

type statsResponse struct {
	PraiseCount     int     `json:"praise_count"`
	ReceiverCount   int     `json:"receiver_count"`
	GiverCount      int     `json:"giver_count"`
	QuantifierCount int     `json:"quantifier_count"`
	TotalScore      float64 `json:"total_score"`
}

type praiseScoreResponse struct {
	PraiseID   uuid.UUID `json:"praise_id"`
	GiverID    uuid.UUID `json:"giver_id"`
	ReceiverID uuid.UUID `json:"receiver_id"`
	Score      float64   `json:"score"`
}

type userTotalResponse struct {
	UserID      uuid.UUID `json:"user_id"`
	PraiseCount int       `json:"praise_count"`
	Score       float64   `json:"score"`
}

type bucketResponse struct {
	Value float64 `json:"value"`
	Count int     `json:"count"`
}

type quantifierScoreResponse struct {
	QuantifierID uuid.UUID `json:"quantifier_id"`
	Count        int       `json:"count"`
	Scored       int       `json:"scored"`
	Total        float64   `json:"total"`
	Mean         float64   `json:"mean"`
	Deviation    float64   `json:"deviation"`
}

type spreadResponse struct {
	PraiseID uuid.UUID `json:"praise_id"`
	Spread   float64   `json:"spread"`
}

type analyticsResponse struct {
	Stats            statsResponse             `json:"stats"`
	TopPraise        []praiseScoreResponse     `json:"top_praise"`
	ReceiversByScore []userTotalResponse       `json:"receivers_by_score"`
	ReceiversByCount []userTotalResponse       `json:"receivers_by_count"`
	GiversByScore    []userTotalResponse       `json:"givers_by_score"`
	GiversByCount    []userTotalResponse       `json:"givers_by_count"`
	Distribution     []bucketResponse          `json:"distribution"`
	Quantifiers      []quantifierScoreResponse `json:"quantifiers"`
	Spreads          []spreadResponse          `json:"spreads"`
}

func convertAll[T, R any](in []T, fn func(T) R) []R {
	out := make([]R, len(in))
	for i, v := range in {
		out[i] = fn(v)
	}
	return out
}

func newAnalyticsResponse(r analytics.Report) analyticsResponse {
	userTotal := func(u analytics.UserTotal) userTotalResponse { return userTotalResponse(u) }
	return analyticsResponse{
		Stats:            statsResponse(r.Stats),
		TopPraise:        convertAll(r.TopPraise, func(p analytics.PraiseScore) praiseScoreResponse { return praiseScoreResponse(p) }),
		ReceiversByScore: convertAll(r.ReceiversByScore, userTotal),
		ReceiversByCount: convertAll(r.ReceiversByCount, userTotal),
		GiversByScore:    convertAll(r.GiversByScore, userTotal),
		GiversByCount:    convertAll(r.GiversByCount, userTotal),
		Distribution:     convertAll(r.Distribution, func(b analytics.Bucket) bucketResponse { return bucketResponse(b) }),
		Quantifiers:      convertAll(r.Quantifiers, func(q analytics.QuantifierScore) quantifierScoreResponse { return quantifierScoreResponse(q) }),
		Spreads:          convertAll(r.Spreads, func(s analytics.Spread) spreadResponse { return spreadResponse(s) }),
	}
}

type createUserRequest struct {
	Name  string   `json:"name"`
	Roles []string `json:"roles"`
}

type roleRequest struct {
	Role string `json:"role"`
}

type deactivateRequest struct {
	Deactivated bool `json:"deactivated"`
}

type userResponse struct {
	ID          uuid.UUID `json:"id"`
	Name        string    `json:"name"`
	Roles       []string  `json:"roles"`
	Deactivated bool      `json:"deactivated"`
	CreatedAt   time.Time `json:"created_at"`
}

func newUserResponse(u domain.User) userResponse {
	roles := make([]string, len(u.Roles))
	for i, r := range u.Roles {
		roles[i] = string(r)
	}
	return userResponse{
		ID:          u.ID,
		Name:        u.Name,
		Roles:       roles,
		Deactivated: u.Deactivated,
		CreatedAt:   u.CreatedAt,
	}
}
