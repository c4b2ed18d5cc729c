package topology

import (
	"fmt"
	"sort"

	wpstack "github.com/wpstack/wpstack"
)

// NameTag is the tag key set by the tagging pass.
const NameTag = "Name"

var tierLabel = map[Tier]string{
	TierPublic:   "Wordpress Ingress",
	TierPrivate:  "Wordpress Application",
	TierIsolated: "Wordpress Database",
}

// name schedules a Name tag for the declaration id. Tags are applied in one
// pass once every resource is declared.
func (b *builder) name(id, value string) {
	b.names[id] = value
}

// applyTags sets the scheduled Name tags through the Taggable interface.
func (b *builder) applyTags() error {
	ids := make([]string, 0, len(b.names))
	for id := range b.names {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	for _, id := range ids {
		d, ok := b.stack.Get(id)
		if !ok {
			return fmt.Errorf("tagging %s: not declared", id)
		}
		taggable, ok := d.Resource.(wpstack.Taggable)
		if !ok {
			return fmt.Errorf("tagging %s: %s does not carry tags", id, d.Type())
		}
		taggable.SetTag(NameTag, b.names[id])
	}
	return nil
}
