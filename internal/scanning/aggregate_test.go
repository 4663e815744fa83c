package scanning

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMerge(t *testing.T) {
	dst := ResultSet{
		"192.0.2.1": {Address: "192.0.2.1", Ports: []PortRecord{{Port: 22}, {Port: 80}}},
		"192.0.2.2": {Address: "192.0.2.2", Ports: []PortRecord{{Port: 25}}},
	}
	src := ResultSet{
		"192.0.2.1": {Address: "192.0.2.1", Ports: []PortRecord{{Port: 443}}},
		"192.0.2.3": {Address: "192.0.2.3", Ports: []PortRecord{{Port: 53}}},
	}

	Merge(dst, src)

	assert.Equal(t, []string{"192.0.2.1", "192.0.2.2", "192.0.2.3"}, dst.Addresses())
	assert.Equal(t, []PortRecord{{Port: 443}}, dst["192.0.2.1"].Ports, "later record replaces earlier one")
	assert.Equal(t, 3, dst.TotalOpenPorts())
}

func TestAggregator(t *testing.T) {
	agg := NewAggregator()
	assert.Empty(t, agg.Results())
	assert.Equal(t, 0, agg.Attempted())

	agg.Attempt()
	agg.Merge(ResultSet{"192.0.2.1": {Address: "192.0.2.1", Ports: []PortRecord{{Port: 22}}}})
	agg.Attempt()
	agg.Attempt()
	agg.Merge(nil)

	assert.Equal(t, 3, agg.Attempted())
	assert.Len(t, agg.Results(), 1)
}
