package cart

type Product struct {
	Name string `json:"name"`
}

const (
	StateSubscribing = "subscribing"
	StateLive        = "live"
	StateAbsent      = "absent"
)

// View is a point-in-time copy of a cart projection.
type View struct {
	CartID string    `json:"cartId"`
	Items  []Product `json:"items"`
	State  string    `json:"state"`
}

func EmptyView(cartID string) View {
	return View{CartID: cartID, Items: []Product{}, State: StateAbsent}
}
