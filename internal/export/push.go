package export

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"github.com/jomei/notionapi"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/fidelis3/Warm-Lead-Sourcer/internal/model"
	"github.com/fidelis3/Warm-Lead-Sourcer/pkg/notion"
	"github.com/fidelis3/Warm-Lead-Sourcer/pkg/salesforce"
)

// LeadSource tags records created by this service.
const LeadSource = "Warm Lead Sourcer"

// Pusher sends enriched leads to an external system.
type Pusher interface {
	Name() string
	Push(ctx context.Context, profiles []model.EnrichedProfile) (PushResult, error)
}

// PushResult tallies a push.
type PushResult struct {
	BatchID string   `json:"batch_id"`
	Target  string   `json:"target"`
	Created int      `json:"created"`
	Updated int      `json:"updated"`
	Failed  int      `json:"failed"`
	Errors  []string `json:"errors,omitempty"`
}

// Notion property names of the lead database.
const (
	notionName     = "Name"
	notionKey      = "Lead Key"
	notionURL      = "LinkedIn URL"
	notionRole     = "Current Role"
	notionCompany  = "Company"
	notionSchool   = "University"
	notionCountry  = "Country"
	notionEmail    = "Email"
	notionScore    = "Score"
	notionStatus   = "Status"
	notionBatch    = "Batch"
	notionNewState = "New"
)

// NotionPusher upserts one page per lead into a Notion database. Leads are
// matched on their LinkedIn URL, or on email when there is no URL.
type NotionPusher struct {
	client notion.Client
	dbID   string
}

// NewNotionPusher creates a NotionPusher for the database dbID.
func NewNotionPusher(c notion.Client, dbID string) *NotionPusher {
	return &NotionPusher{client: c, dbID: dbID}
}

// Name implements Pusher.
func (p *NotionPusher) Name() string { return "notion" }

// Push implements Pusher. A failed page does not stop the batch; ctx
// cancellation does.
func (p *NotionPusher) Push(ctx context.Context, profiles []model.EnrichedProfile) (PushResult, error) {
	res := PushResult{BatchID: uuid.NewString(), Target: p.Name()}
	log := zap.L().With(zap.String("batch_id", res.BatchID), zap.String("target", res.Target))

	for _, lead := range profiles {
		if err := ctx.Err(); err != nil {
			return res, err
		}
		created, err := notion.UpsertPage(ctx, p.client, p.dbID, notionKey, leadKey(lead), notionProperties(lead, res.BatchID))
		if err != nil {
			log.Warn("export: notion upsert failed", zap.String("name", lead.Name), zap.Error(err))
			res.Failed++
			res.Errors = append(res.Errors, lead.Name+": "+err.Error())
			continue
		}
		if created {
			res.Created++
		} else {
			res.Updated++
		}
	}

	log.Info("export: notion push complete",
		zap.Int("created", res.Created),
		zap.Int("updated", res.Updated),
		zap.Int("failed", res.Failed),
	)
	return res, nil
}

func leadKey(p model.EnrichedProfile) string {
	if u := p.URL(); u != "" {
		return strings.ToLower(strings.TrimRight(u, "/"))
	}
	return strings.ToLower(p.Email)
}

func notionProperties(p model.EnrichedProfile, batchID string) notionapi.Properties {
	props := notionapi.Properties{
		notionName:    notion.Title(p.Name),
		notionKey:     notion.RichText(leadKey(p)),
		notionEmail:   notion.Email(p.Email),
		notionScore:   notion.Number(float64(p.Score)),
		notionStatus:  notion.Select(notionNewState),
		notionBatch:   notion.RichText(batchID),
		notionRole:    notion.RichText(orEmpty(p.Role())),
		notionCompany: notion.RichText(orEmpty(p.Company)),
		notionSchool:  notion.RichText(orEmpty(p.Education)),
		notionCountry: notion.RichText(orEmpty(p.Country)),
	}
	if u := p.URL(); u != "" {
		props[notionURL] = notion.URL(u)
	}
	return props
}

func orEmpty(v string) string {
	if model.IsMissing(v) {
		return ""
	}
	return v
}

// SalesforcePusher upserts leads as Salesforce Lead records matched on
// Email.
type SalesforcePusher struct {
	client     salesforce.Client
	scoreField string
}

// NewSalesforcePusher creates a SalesforcePusher. When scoreField is set the
// lead score is written to that custom field.
func NewSalesforcePusher(c salesforce.Client, scoreField string) *SalesforcePusher {
	return &SalesforcePusher{client: c, scoreField: scoreField}
}

// Name implements Pusher.
func (p *SalesforcePusher) Name() string { return "salesforce" }

// Push implements Pusher.
func (p *SalesforcePusher) Push(ctx context.Context, profiles []model.EnrichedProfile) (PushResult, error) {
	res := PushResult{BatchID: uuid.NewString(), Target: p.Name()}

	records := make([]map[string]any, 0, len(profiles))
	for _, lead := range profiles {
		records = append(records, p.leadRecord(lead))
	}

	sync, err := salesforce.UpsertLeads(ctx, p.client, records)
	if err != nil {
		return res, eris.Wrap(err, "export: salesforce push")
	}
	res.Created, res.Updated, res.Failed, res.Errors = sync.Created, sync.Updated, sync.Failed, sync.Errors

	zap.L().Info("export: salesforce push complete",
		zap.String("batch_id", res.BatchID),
		zap.Int("created", res.Created),
		zap.Int("updated", res.Updated),
		zap.Int("failed", res.Failed),
	)
	return res, nil
}

func (p *SalesforcePusher) leadRecord(lead model.EnrichedProfile) map[string]any {
	first, last := splitName(lead.Name)
	company := orEmpty(lead.Company)
	if company == "" {
		// Company is required on Lead.
		company = "Unknown"
	}

	rec := map[string]any{
		"FirstName":   first,
		"LastName":    last,
		"Company":     company,
		"Email":       lead.Email,
		"LeadSource":  LeadSource,
		"Description": orEmpty(lead.Summary),
	}
	if role := lead.Role(); role != "" {
		rec["Title"] = role
	}
	if c := orEmpty(lead.Country); c != "" {
		rec["Country"] = c
	}
	if c := orEmpty(lead.City); c != "" {
		rec["City"] = c
	}
	if u := lead.URL(); u != "" {
		rec["Website"] = u
	}
	if p.scoreField != "" {
		rec[p.scoreField] = lead.Score
	}
	return rec
}

// splitName returns first and last name; LastName is required on Lead so a
// single token goes there.
func splitName(name string) (string, string) {
	tokens := strings.Fields(name)
	switch len(tokens) {
	case 0:
		return "", model.UnknownName
	case 1:
		return "", tokens[0]
	default:
		return strings.Join(tokens[:len(tokens)-1], " "), tokens[len(tokens)-1]
	}
}
