package tank

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"

	"github.com/charmbracelet/log"
)

// ExportCSV writes the whole roster as name,tier,type rows.
func ExportCSV(ctx context.Context, s Store, w io.Writer) error {
	tanks, err := s.ListTanks(ctx, Filter{})
	if err != nil {
		return err
	}
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"name", "tier", "type"}); err != nil {
		return err
	}
	for _, t := range tanks {
		if err := cw.Write([]string{t.Name, strconv.Itoa(t.Tier), string(t.Type)}); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// ParseRosterCSV reads a roster with a name,tier,type header. Rows with an
// empty name are skipped; any other invalid row fails the whole parse.
func ParseRosterCSV(r io.Reader) (map[string]Spec, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return map[string]Spec{}, nil
		}
		return nil, invalid("Could not read CSV header: %v", err)
	}
	col := map[string]int{}
	for i, h := range header {
		col[strings.ToLower(strings.TrimSpace(h))] = i
	}
	for _, required := range []string{"name", "tier", "type"} {
		if _, ok := col[required]; !ok {
			return nil, invalid("CSV is missing the %q column.", required)
		}
	}
	field := func(rec []string, name string) string {
		i := col[name]
		if i >= len(rec) {
			return ""
		}
		return rec[i]
	}

	incoming := map[string]Spec{}
	for {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, invalid("Could not read CSV: %v", err)
		}
		if strings.TrimSpace(field(rec, "name")) == "" {
			continue
		}
		tier, _ := strconv.Atoi(strings.TrimSpace(field(rec, "tier")))
		spec, err := ValidateSpec(Spec{
			Name: field(rec, "name"),
			Tier: tier,
			Type: Type(field(rec, "type")),
		})
		if err != nil {
			return nil, invalid("Invalid row for `%s`: %v", strings.TrimSpace(field(rec, "name")), err)
		}
		incoming[spec.Name] = spec
	}
	return incoming, nil
}

// ImportPlan is the difference between the current roster and an incoming one.
type ImportPlan struct {
	Adds    []Spec
	Edits   []Spec
	Removes []string
}

// PlanImport compares existing and incoming rosters. Removals are only planned
// when deleteMissing is set.
func PlanImport(existing []Tank, incoming map[string]Spec, deleteMissing bool) ImportPlan {
	current := make(map[string]Tank, len(existing))
	for _, t := range existing {
		current[t.Name] = t
	}

	var plan ImportPlan
	for name, spec := range incoming {
		t, ok := current[name]
		switch {
		case !ok:
			plan.Adds = append(plan.Adds, spec)
		case t.Tier != spec.Tier || t.Type != spec.Type:
			plan.Edits = append(plan.Edits, spec)
		}
	}
	if deleteMissing {
		for name := range current {
			if _, ok := incoming[name]; !ok {
				plan.Removes = append(plan.Removes, name)
			}
		}
	}

	sort.Slice(plan.Adds, func(i, j int) bool { return plan.Adds[i].Name < plan.Adds[j].Name })
	sort.Slice(plan.Edits, func(i, j int) bool { return plan.Edits[i].Name < plan.Edits[j].Name })
	sort.Strings(plan.Removes)
	return plan
}

// ImportResult reports what ApplyImport changed.
type ImportResult struct {
	Added    int
	Edited   int
	Removed  int
	Skipped  []string
	Affected []Bucket
}

// ApplyImport applies a plan. Tanks that still have submissions are skipped
// rather than failing the import. Affected lists every bucket whose
// membership changed, including the previous bucket of edited tanks.
func ApplyImport(ctx context.Context, s Store, plan ImportPlan, actor string) (ImportResult, error) {
	var res ImportResult
	affected := map[Bucket]struct{}{}

	for _, spec := range plan.Adds {
		t, err := s.AddTank(ctx, spec, actor)
		if err != nil {
			return res, fmt.Errorf("failed to add %s: %w", spec.Name, err)
		}
		res.Added++
		affected[t.Bucket()] = struct{}{}
	}
	for _, spec := range plan.Edits {
		old, updated, err := s.EditTank(ctx, spec, actor)
		if err != nil {
			return res, fmt.Errorf("failed to edit %s: %w", spec.Name, err)
		}
		res.Edited++
		affected[old.Bucket()] = struct{}{}
		affected[updated.Bucket()] = struct{}{}
	}
	for _, name := range plan.Removes {
		t, err := s.RemoveTank(ctx, name, actor)
		if err != nil {
			if errors.Is(err, ErrTankHasSubmissions) {
				res.Skipped = append(res.Skipped, name)
				continue
			}
			return res, fmt.Errorf("failed to remove %s: %w", name, err)
		}
		res.Removed++
		affected[t.Bucket()] = struct{}{}
	}

	res.Affected = SortBuckets(affected)
	log.Info("Roster import applied", "added", res.Added, "edited", res.Edited, "removed", res.Removed, "skipped", len(res.Skipped))
	return res, nil
}

// SortBuckets returns the set's buckets ordered by type then tier.
func SortBuckets(set map[Bucket]struct{}) []Bucket {
	out := make([]Bucket, 0, len(set))
	for b := range set {
		out = append(out, b)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Type != out[j].Type {
			return out[i].Type < out[j].Type
		}
		return out[i].Tier < out[j].Tier
	})
	return out
}
