package totals

import (
	"sort"

	"eventbudget/internal/core"
)

// Amounts is the argument of the incremental add and subtract modes. A nil
// field is absent; a zero amount is present.
type Amounts struct {
	Budgeted  *core.Money
	Scheduled *core.Money
	Spent     *core.Money
}

func (a Amounts) empty() bool {
	return a.Budgeted == nil && a.Scheduled == nil && a.Spent == nil
}

func (a Amounts) negative() bool {
	for _, m := range []*core.Money{a.Budgeted, a.Scheduled, a.Spent} {
		if m != nil && m.Cents < 0 {
			return true
		}
	}
	return false
}

func deref(m *core.Money) core.Money {
	if m == nil {
		return core.Money{}
	}
	return *m
}

// Change adds and subtracts from one total. The result is floored at zero.
type Change struct {
	Add      core.Money `json:"add"`
	Subtract core.Money `json:"subtract"`
}

// Apply returns max(0, cur + Add - Subtract).
func (c Change) Apply(cur core.Money) core.Money {
	return cur.Add(c.Add).FloorSub(c.Subtract)
}

func (c Change) merge(o Change) Change {
	return Change{Add: c.Add.Add(o.Add), Subtract: c.Subtract.Add(o.Subtract)}
}

func (c Change) negative() bool {
	return c.Add.Cents < 0 || c.Subtract.Cents < 0
}

// Changes groups the change of each of the three totals.
type Changes struct {
	Budgeted  Change `json:"budgeted"`
	Scheduled Change `json:"scheduled"`
	Spent     Change `json:"spent"`
}

// ApplyTo returns t with every change applied.
func (c Changes) ApplyTo(t core.Totals) core.Totals {
	return core.Totals{
		Budgeted:  c.Budgeted.Apply(t.Budgeted),
		Scheduled: c.Scheduled.Apply(t.Scheduled),
		Spent:     c.Spent.Apply(t.Spent),
	}
}

func (c Changes) merge(o Changes) Changes {
	return Changes{
		Budgeted:  c.Budgeted.merge(o.Budgeted),
		Scheduled: c.Scheduled.merge(o.Scheduled),
		Spent:     c.Spent.merge(o.Spent),
	}
}

func (c Changes) negative() bool {
	return c.Budgeted.negative() || c.Scheduled.negative() || c.Spent.negative()
}

// Plan collects the total adjustments of one logical mutation, per category.
// The event's change is always the sum of the category changes, so category
// and event totals cannot move independently.
type Plan struct {
	categories map[string]Changes
}

func NewPlan() *Plan {
	return &Plan{categories: make(map[string]Changes)}
}

func (p *Plan) add(categoryID string, c Changes) *Plan {
	p.categories[categoryID] = p.categories[categoryID].merge(c)
	return p
}

func (p *Plan) AddBudgeted(categoryID string, m core.Money) *Plan {
	return p.add(categoryID, Changes{Budgeted: Change{Add: m}})
}

func (p *Plan) SubtractBudgeted(categoryID string, m core.Money) *Plan {
	return p.add(categoryID, Changes{Budgeted: Change{Subtract: m}})
}

func (p *Plan) AddScheduled(categoryID string, m core.Money) *Plan {
	return p.add(categoryID, Changes{Scheduled: Change{Add: m}})
}

func (p *Plan) SubtractScheduled(categoryID string, m core.Money) *Plan {
	return p.add(categoryID, Changes{Scheduled: Change{Subtract: m}})
}

func (p *Plan) AddSpent(categoryID string, m core.Money) *Plan {
	return p.add(categoryID, Changes{Spent: Change{Add: m}})
}

func (p *Plan) SubtractSpent(categoryID string, m core.Money) *Plan {
	return p.add(categoryID, Changes{Spent: Change{Subtract: m}})
}

// Empty reports whether the plan changes nothing.
func (p *Plan) Empty() bool {
	for _, c := range p.categories {
		if c != (Changes{}) {
			return false
		}
	}
	return true
}

// CategoryIDs returns the touched categories in a stable order.
func (p *Plan) CategoryIDs() []string {
	ids := make([]string, 0, len(p.categories))
	for id := range p.categories {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Category returns the changes planned for one category.
func (p *Plan) Category(id string) Changes {
	return p.categories[id]
}

// Event returns the event-level changes, the sum over all categories.
func (p *Plan) Event() Changes {
	var total Changes
	for _, c := range p.categories {
		total = total.merge(c)
	}
	return total
}
