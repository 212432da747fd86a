package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/ariefcatur/go-organic-store/internal/api"
	"github.com/ariefcatur/go-organic-store/internal/catalog"
	"github.com/ariefcatur/go-organic-store/internal/gate"
	"github.com/ariefcatur/go-organic-store/internal/orders"
)

type command struct {
	route string
	args  string
	run   func(ctx context.Context, a *app, args []string) error
}

var commandOrder = []string{
	"register", "login", "logout", "whoami",
	"categories", "products", "cart", "add", "remove", "orders",
	"admin-orders", "admin-users", "admin-products", "set-status",
}

var commands = map[string]command{
	"register":       {gate.RouteRegister, "-name N -email E -password P [-phone X] [-address Y]", runRegister},
	"login":          {gate.RouteLogin, "-email E -password P", runLogin},
	"logout":         {gate.RouteLogin, "", runLogout},
	"whoami":         {gate.RouteAccount, "", runWhoami},
	"categories":     {gate.RouteDefault, "", runCategories},
	"products":       {gate.RouteDefault, "[-category ID]", runProducts},
	"cart":           {gate.RouteCart, "", runCart},
	"add":            {gate.RouteCart, "PRODUCT_ID", runAdd},
	"remove":         {gate.RouteCart, "CART_ITEM_ID", runRemove},
	"orders":         {gate.RouteOrders, "", runOrders},
	"admin-orders":   {gate.RouteAdmin, "", runAdminOrders},
	"admin-users":    {gate.RouteAdmin, "", runAdminUsers},
	"admin-products": {gate.RouteAdmin, "", runAdminProducts},
	"set-status":     {gate.RouteAdmin, "ORDER_ID STATUS", runSetStatus},
}

func table(w io.Writer, header string, rows func(tw *tabwriter.Writer)) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, header)
	rows(tw)
	return tw.Flush()
}

func subFlags(name string) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	return fs
}

func runRegister(ctx context.Context, a *app, args []string) error {
	fs := subFlags("register")
	var in api.RegisterInput
	var phone, address string
	fs.StringVar(&in.Name, "name", "", "")
	fs.StringVar(&in.Email, "email", "", "")
	fs.StringVar(&in.Password, "password", "", "")
	fs.StringVar(&phone, "phone", "", "")
	fs.StringVar(&address, "address", "", "")
	if err := fs.Parse(args); err != nil || in.Name == "" || in.Email == "" || in.Password == "" {
		return usageError("register")
	}
	if phone != "" {
		in.Phone = &phone
	}
	if address != "" {
		in.Address = &address
	}
	u, err := a.session.Register(ctx, in)
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "registered %s; run `storefront login` to sign in\n", u.Email)
	return nil
}

func runLogin(ctx context.Context, a *app, args []string) error {
	fs := subFlags("login")
	email := fs.String("email", "", "")
	password := fs.String("password", "", "")
	if err := fs.Parse(args); err != nil || *email == "" || *password == "" {
		return usageError("login")
	}
	u, err := a.session.Login(ctx, *email, *password)
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "signed in as %s (%s); continue at %s\n", u.Name, u.Role, a.nav.AfterLogin())
	return nil
}

func runLogout(_ context.Context, a *app, _ []string) error {
	a.session.Logout()
	fmt.Fprintln(a.out, "signed out")
	return nil
}

func runWhoami(_ context.Context, a *app, _ []string) error {
	u, _ := a.session.User()
	fmt.Fprintf(a.out, "%s <%s> role=%s\n", u.Name, u.Email, u.Role)
	return nil
}

func runCategories(ctx context.Context, a *app, _ []string) error {
	a.catalog.Open(ctx)
	cs, err := a.catalog.Categories(ctx)
	if err != nil {
		return err
	}
	return table(a.out, "ID\tNAME\tDESCRIPTION", func(tw *tabwriter.Writer) {
		for _, c := range cs {
			fmt.Fprintf(tw, "%s\t%s\t%s\n", c.ID, c.Name, c.Description)
		}
	})
}

func runProducts(ctx context.Context, a *app, args []string) error {
	fs := subFlags("products")
	category := fs.String("category", "", "")
	if err := fs.Parse(args); err != nil {
		return usageError("products")
	}
	a.catalog.Open(ctx)
	ps, err := a.catalog.Products(ctx, *category)
	if err != nil {
		return err
	}
	return printProducts(a.out, ps)
}

func printProducts(w io.Writer, ps []orders.Product) error {
	return table(w, "ID\tNAME\tPRICE\tSTOCK\tIMAGE", func(tw *tabwriter.Writer) {
		for _, p := range ps {
			stock := fmt.Sprint(p.StockQuantity)
			if p.StockQuantity <= 0 {
				stock = "out of stock"
			}
			fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n", p.ID, p.Name, orders.ToCents(p.Price), stock, catalog.ImageSource(p, false))
		}
	})
}

func runCart(ctx context.Context, a *app, _ []string) error {
	if err := a.cart.Refresh(ctx); err != nil {
		return err
	}
	lines := a.cart.Lines()
	if len(lines) == 0 {
		fmt.Fprintln(a.out, "cart is empty")
		return nil
	}
	err := table(a.out, "ITEM\tPRODUCT\tQTY\tPRICE\tSUBTOTAL", func(tw *tabwriter.Writer) {
		for _, l := range lines {
			fmt.Fprintf(tw, "%s\t%s\t%d\t%s\t%s\n", l.Item.ID, l.Product.Name, l.Item.Quantity, orders.ToCents(l.Product.Price), l.Subtotal)
		}
	})
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "subtotal %s\ndelivery %s\ntotal    %s\n", a.cart.Total(), a.cart.DeliveryFee(), a.cart.DisplayTotal())
	return nil
}

func runAdd(ctx context.Context, a *app, args []string) error {
	if len(args) != 1 {
		return usageError("add")
	}
	p, err := a.catalog.Product(ctx, args[0])
	if err != nil {
		return err
	}
	if _, err := a.cart.Add(ctx, p); err != nil {
		return err
	}
	fmt.Fprintf(a.out, "added 1 x %s\n", p.Name)
	return nil
}

func runRemove(ctx context.Context, a *app, args []string) error {
	if len(args) != 1 {
		return usageError("remove")
	}
	if err := a.cart.Remove(ctx, args[0]); err != nil {
		return err
	}
	fmt.Fprintf(a.out, "removed; cart total %s\n", a.cart.DisplayTotal())
	return nil
}

func runOrders(ctx context.Context, a *app, _ []string) error {
	list, err := a.history.List(ctx)
	if err != nil {
		return err
	}
	return printOrders(a.out, list)
}

func printOrders(w io.Writer, list []orders.Order) error {
	if len(list) == 0 {
		fmt.Fprintln(w, "no orders yet")
		return nil
	}
	return table(w, "ORDER\tSTATUS\tTOTAL\tITEMS\tPLACED", func(tw *tabwriter.Writer) {
		for _, o := range list {
			items := ""
			for i, it := range o.Items {
				if i > 0 {
					items += ", "
				}
				items += fmt.Sprintf("%d x %s", it.Quantity, it.ProductName)
			}
			fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n", o.ID, o.Status, orders.ToCents(o.TotalAmount), items, o.CreatedAt.Format("2006-01-02 15:04"))
		}
	})
}

func runAdminOrders(ctx context.Context, a *app, _ []string) error {
	list, err := a.admin.Orders(ctx)
	if err != nil {
		return err
	}
	return printOrders(a.out, list)
}

func runAdminUsers(ctx context.Context, a *app, _ []string) error {
	users, err := a.admin.Users(ctx)
	if err != nil {
		return err
	}
	return table(a.out, "ID\tNAME\tEMAIL\tROLE", func(tw *tabwriter.Writer) {
		for _, u := range users {
			fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", u.ID, u.Name, u.Email, u.Role)
		}
	})
}

func runAdminProducts(ctx context.Context, a *app, _ []string) error {
	ps, err := a.admin.Products(ctx)
	if err != nil {
		return err
	}
	return printProducts(a.out, ps)
}

func runSetStatus(ctx context.Context, a *app, args []string) error {
	if len(args) != 2 {
		return usageError("set-status")
	}
	list, err := a.admin.SetOrderStatus(ctx, args[0], args[1])
	if err != nil {
		return err
	}
	return printOrders(a.out, list)
}
