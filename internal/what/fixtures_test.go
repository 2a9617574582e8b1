package what

import "fmt"

type point struct {
	X int
	Y int
}

type tagged struct {
	Rate    float64 `what:"lr"`
	Workers int     `what:"n_jobs,nonid"`
	Scratch string  `what:"-"`
	hidden  int
}

type celsius float64

type layers []int

type weights map[string]float64

type tags map[string]struct{}

type stamp struct {
	Epoch int
}

func (s stamp) String() string {
	return fmt.Sprintf("stamp@%d", s.Epoch)
}

// handle prints through its pointer only.
type handle struct {
	P *int
}

func (h *handle) String() string {
	return fmt.Sprintf("handle(%d)", *h.P)
}

type node struct {
	Next *node
}

type model struct {
	depth int
	seed  int
}

func (m *model) What() *Config {
	return MustNew("model", map[string]any{"depth": m.depth, "seed": m.seed}, WithNonIDKeys("seed"))
}

func (m *model) Fit() {}

type broken struct{}

func (broken) What() *Config { return nil }

func sampleFunc() {}
