package cart

type OpKind string

const (
	OpIncrement OpKind = "increment"
	OpInsert    OpKind = "insert"
)

// Op is one write needed to fold a guest line into the server cart.
// For OpIncrement Quantity is the delta; for OpInsert it is the new row's quantity.
type Op struct {
	Kind     OpKind
	Key      LineKey
	Quantity int
}

type Plan struct {
	Merged map[LineKey]int
	Ops    []Op
}

// PlanMerge computes the union of server and guest carts. Quantities for a
// key present on both sides are summed. Ops follow guest line order.
func PlanMerge(server map[LineKey]int, guest []Line) Plan {
	merged := make(map[LineKey]int, len(server)+len(guest))
	for k, q := range server {
		merged[k] = q
	}
	guest = Normalize(guest)
	ops := make([]Op, 0, len(guest))
	for _, l := range guest {
		k := l.Key()
		if _, ok := server[k]; ok {
			ops = append(ops, Op{Kind: OpIncrement, Key: k, Quantity: l.Quantity})
		} else {
			ops = append(ops, Op{Kind: OpInsert, Key: k, Quantity: l.Quantity})
		}
		merged[k] += l.Quantity
	}
	return Plan{Merged: merged, Ops: ops}
}

func (p Plan) IsNoop() bool { return len(p.Ops) == 0 }
