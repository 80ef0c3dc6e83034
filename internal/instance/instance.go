// Package instance holds the immutable wave-picking problem data: the
// orders and aisles read from an instance file, the wave-size bounds,
// and the order/aisle adjacency derived from item overlap.
package instance

import "fmt"

// Order is a customer request: a sparse map of item id to demanded units.
type Order struct {
	Demand map[int]int
	Items  []int // sorted keys of Demand, precomputed for deterministic iteration
	Units  int   // total demanded units, precomputed
}

// Aisle is a warehouse location: a sparse map of item id to stocked units.
type Aisle struct {
	Stock map[int]int
	Items []int // sorted keys of Stock
}

// Instance is the immutable problem data for one wave-picking run.
type Instance struct {
	NumItems int
	Orders   []Order
	Aisles   []Aisle
	WaveLB   int
	WaveUB   int

	orderToAisles [][]int
	aisleToOrders [][]int
}

// New validates and constructs an Instance from raw per-order and
// per-aisle demand/stock maps.
func New(numItems int, orderDemand []map[int]int, aisleStock []map[int]int, waveLB, waveUB int) (*Instance, error) {
	inst := &Instance{
		NumItems: numItems,
		WaveLB:   waveLB,
		WaveUB:   waveUB,
	}
	inst.Orders = make([]Order, len(orderDemand))
	for o, d := range orderDemand {
		inst.Orders[o] = newOrder(d)
	}
	inst.Aisles = make([]Aisle, len(aisleStock))
	for a, st := range aisleStock {
		inst.Aisles[a] = newAisle(st)
	}
	if err := inst.Validate(); err != nil {
		return nil, err
	}
	return inst, nil
}

func newOrder(demand map[int]int) Order {
	items := make([]int, 0, len(demand))
	units := 0
	for i, u := range demand {
		items = append(items, i)
		units += u
	}
	sortInts(items)
	return Order{Demand: demand, Items: items, Units: units}
}

func newAisle(stock map[int]int) Aisle {
	items := make([]int, 0, len(stock))
	for i := range stock {
		items = append(items, i)
	}
	sortInts(items)
	return Aisle{Stock: stock, Items: items}
}

func sortInts(xs []int) {
	for i := 1; i < len(xs); i++ {
		v := xs[i]
		j := i - 1
		for j >= 0 && xs[j] > v {
			xs[j+1] = xs[j]
			j--
		}
		xs[j+1] = v
	}
}

// Validate checks the dense-id invariants and field bounds from spec.md §3.
func (inst *Instance) Validate() error {
	if inst == nil {
		return fmt.Errorf("instance is nil")
	}
	if inst.NumItems < 0 {
		return fmt.Errorf("numItems must be >= 0 (got %d)", inst.NumItems)
	}
	if inst.WaveLB < 0 {
		return fmt.Errorf("waveLB must be >= 0 (got %d)", inst.WaveLB)
	}
	if inst.WaveUB < inst.WaveLB {
		return fmt.Errorf("waveUB must be >= waveLB (got LB=%d UB=%d)", inst.WaveLB, inst.WaveUB)
	}
	for o, ord := range inst.Orders {
		for item, units := range ord.Demand {
			if item < 0 || item >= inst.NumItems {
				return fmt.Errorf("order %d: item id %d out of range [0,%d)", o, item, inst.NumItems)
			}
			if units <= 0 {
				return fmt.Errorf("order %d: item %d demands non-positive units %d", o, item, units)
			}
		}
	}
	for a, ais := range inst.Aisles {
		for item, units := range ais.Stock {
			if item < 0 || item >= inst.NumItems {
				return fmt.Errorf("aisle %d: item id %d out of range [0,%d)", a, item, inst.NumItems)
			}
			if units <= 0 {
				return fmt.Errorf("aisle %d: item %d stocks non-positive units %d", a, item, units)
			}
		}
	}
	return nil
}

// NumOrders returns the number of orders in the instance.
func (inst *Instance) NumOrders() int { return len(inst.Orders) }

// NumAisles returns the number of aisles in the instance.
func (inst *Instance) NumAisles() int { return len(inst.Aisles) }

// Adjacency returns, computing and caching on first call, the
// order→aisles and aisle→orders adjacency derived from item overlap
// (spec.md §4.1). The maps are treated as immutable once computed.
func (inst *Instance) Adjacency() (orderToAisles, aisleToOrders [][]int) {
	if inst.orderToAisles != nil {
		return inst.orderToAisles, inst.aisleToOrders
	}

	itemToAisles := make([][]int, inst.NumItems)
	for a, ais := range inst.Aisles {
		for _, item := range ais.Items {
			itemToAisles[item] = append(itemToAisles[item], a)
		}
	}

	orderToAisles = make([][]int, len(inst.Orders))
	aisleHasOrder := make([][]bool, len(inst.Aisles))
	for a := range aisleHasOrder {
		aisleHasOrder[a] = make([]bool, len(inst.Orders))
	}
	for o, ord := range inst.Orders {
		seen := make(map[int]bool, 8)
		var aisles []int
		for _, item := range ord.Items {
			for _, a := range itemToAisles[item] {
				if !seen[a] {
					seen[a] = true
					aisles = append(aisles, a)
				}
			}
		}
		sortInts(aisles)
		orderToAisles[o] = aisles
		for _, a := range aisles {
			aisleHasOrder[a][o] = true
		}
	}

	aisleToOrders = make([][]int, len(inst.Aisles))
	for a := range inst.Aisles {
		var orders []int
		for o := range inst.Orders {
			if aisleHasOrder[a][o] {
				orders = append(orders, o)
			}
		}
		aisleToOrders[a] = orders
	}

	inst.orderToAisles = orderToAisles
	inst.aisleToOrders = aisleToOrders
	return orderToAisles, aisleToOrders
}

// ItemUnitsInAisles returns, for the given item, the total stocked
// units summed across the provided aisle ids. Used by the per-unit
// feasibility gate (spec.md §9).
func (inst *Instance) ItemUnitsInAisles(item int, aisleIDs []int) int {
	total := 0
	for _, a := range aisleIDs {
		total += inst.Aisles[a].Stock[item]
	}
	return total
}
