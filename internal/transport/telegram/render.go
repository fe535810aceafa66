package telegram

import (
	"fmt"
	"strings"

	"github.com/sandevgo/storedash/internal/service/feed"
	"github.com/sandevgo/storedash/internal/service/session"
	"github.com/sandevgo/storedash/pkg/conv"
)

const (
	offlineNote = "_Using offline estimates, the prediction service is unreachable._"
	maxListed   = 25
)

// renderPage lists the products appended since offset.
func renderPage(st feed.State, offset int) string {
	var b strings.Builder

	fmt.Fprintf(&b, "**Catalog**%s\n", describeFilter(st))
	if len(st.Products) == 0 {
		b.WriteString("No products match.\n")
		return b.String()
	}

	if offset < 0 || offset > len(st.Products) {
		offset = 0
	}
	fresh := st.Products[offset:]
	for i, p := range fresh {
		if i == maxListed {
			fmt.Fprintf(&b, "…and %d more\n", len(fresh)-maxListed)
			break
		}
		fmt.Fprintf(&b, "`%s` %s · %s\n", p.ID, conv.EscapeMarkdown(p.Name), conv.EscapeMarkdown(p.Aisle))
	}

	fmt.Fprintf(&b, "\nShowing %d of %d products", len(st.Products), st.Total)
	if st.HasMore {
		b.WriteString(", /more for the next page")
	} else {
		b.WriteString(", no more products")
	}
	b.WriteString("\n")

	if st.Offline {
		b.WriteString("\n_Offline catalog, showing every local match._\n")
	}
	return b.String()
}

func describeFilter(st feed.State) string {
	var parts []string
	if st.Filter.Search != "" {
		parts = append(parts, fmt.Sprintf("search %q", st.Filter.Search))
	}
	if st.Filter.Department != "" {
		parts = append(parts, "department "+st.Filter.Department)
	}
	if st.Filter.Aisle != "" {
		parts = append(parts, "aisle "+st.Filter.Aisle)
	}
	if len(parts) == 0 {
		return ""
	}
	return " (" + conv.EscapeMarkdown(strings.Join(parts, ", ")) + ")"
}

func renderCart(snap session.Snapshot) string {
	if len(snap.Cart) == 0 {
		return "Your cart is empty. Use `/add <id>` to add a product."
	}

	var b strings.Builder
	fmt.Fprintf(&b, "**Cart** (%d items)\n", snap.ItemCount)
	for _, l := range snap.Cart {
		name := l.Name
		if name == "" {
			name = "Product #" + l.ProductID
		}
		fmt.Fprintf(&b, "`%s` %s × %d\n", l.ProductID, conv.EscapeMarkdown(name), l.Quantity)
	}
	return b.String()
}

func renderPredictions(snap session.Snapshot) string {
	if len(snap.Cart) == 0 {
		return "Add products to your cart to get recommendations."
	}
	if len(snap.Predictions) == 0 {
		return "No recommendations right now."
	}

	var b strings.Builder
	b.WriteString("**You might also need**\n")
	for i, c := range snap.Predictions {
		fmt.Fprintf(&b, "%d. `%s` %s", i+1, c.ProductID, conv.EscapeMarkdown(c.DisplayName()))
		if c.Aisle != "" {
			fmt.Fprintf(&b, " · %s", conv.EscapeMarkdown(c.Aisle))
		}
		b.WriteString("\n")
	}
	if snap.Offline {
		b.WriteString("\n" + offlineNote + "\n")
	}
	return b.String()
}
