package salesforce

import (
	"context"
	"fmt"
	"strings"

	"github.com/rotisserie/eris"
)

// queryBatchSize bounds the number of values in one SOQL IN clause.
const queryBatchSize = 100

// Lead is the subset of Lead fields read back when matching existing records.
type Lead struct {
	ID    string `json:"Id" salesforce:"Id"`
	Email string `json:"Email" salesforce:"Email"`
}

// SyncResult tallies the outcome of UpsertLeads.
type SyncResult struct {
	Created int
	Updated int
	Failed  int
	Errors  []string
}

// FindLeadIDsByEmail returns the IDs of existing Leads keyed by lower-cased
// email address.
func FindLeadIDsByEmail(ctx context.Context, c Client, emails []string) (map[string]string, error) {
	ids := make(map[string]string)
	for start := 0; start < len(emails); start += queryBatchSize {
		end := min(start+queryBatchSize, len(emails))

		quoted := make([]string, 0, end-start)
		for _, e := range emails[start:end] {
			quoted = append(quoted, "'"+escapeSoql(e)+"'")
		}
		soql := fmt.Sprintf("SELECT Id, Email FROM Lead WHERE Email IN (%s)", strings.Join(quoted, ", "))

		var leads []Lead
		if err := c.Query(ctx, soql, &leads); err != nil {
			return nil, eris.Wrap(err, "sf: find leads by email")
		}
		for _, l := range leads {
			ids[strings.ToLower(l.Email)] = l.ID
		}
	}
	return ids, nil
}

// UpsertLeads matches records on their Email field, updating Leads that
// already exist and inserting the rest. Per-record failures are counted in
// the result; only transport failures are returned as errors.
func UpsertLeads(ctx context.Context, c Client, records []map[string]any) (SyncResult, error) {
	var res SyncResult
	if len(records) == 0 {
		return res, nil
	}

	emails := make([]string, 0, len(records))
	for _, r := range records {
		if e, ok := r["Email"].(string); ok && e != "" {
			emails = append(emails, e)
		}
	}
	existing, err := FindLeadIDsByEmail(ctx, c, emails)
	if err != nil {
		return res, err
	}

	var inserts []map[string]any
	var updates []CollectionRecord
	for _, r := range records {
		e, _ := r["Email"].(string)
		if id, ok := existing[strings.ToLower(e)]; ok && e != "" {
			updates = append(updates, CollectionRecord{ID: id, Fields: r})
			continue
		}
		inserts = append(inserts, r)
	}

	if len(inserts) > 0 {
		results, err := c.InsertCollection(ctx, "Lead", inserts)
		if err != nil {
			return res, eris.Wrap(err, "sf: insert leads")
		}
		res.Created, res.Failed, res.Errors = tally(results, res.Failed, res.Errors)
	}

	for start := 0; start < len(updates); start += maxBatchSize {
		end := min(start+maxBatchSize, len(updates))
		results, err := c.UpdateCollection(ctx, "Lead", updates[start:end])
		if err != nil {
			return res, eris.Wrap(err, fmt.Sprintf("sf: update leads batch %d-%d", start, end))
		}
		var ok int
		ok, res.Failed, res.Errors = tally(results, res.Failed, res.Errors)
		res.Updated += ok
	}

	return res, nil
}

func tally(results []CollectionResult, failed int, errs []string) (int, int, []string) {
	ok := 0
	for _, r := range results {
		if r.Success {
			ok++
			continue
		}
		failed++
		errs = append(errs, r.Errors...)
	}
	return ok, failed, errs
}

// escapeSoql escapes single quotes in SOQL string literals to prevent injection.
func escapeSoql(s string) string {
	return strings.ReplaceAll(s, "'", "\\'")
}
