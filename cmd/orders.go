package cmd

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/olekukonko/tablewriter"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"example.com/backstage/services/herdadmin/internal/models"
	"example.com/backstage/services/herdadmin/internal/orders"
)

var ordersFlags struct {
	admin   string
	search  string
	payment string
	status  string
	all     bool
}

var ordersCmd = &cobra.Command{
	Use:   "orders",
	Short: "List the pending units of an admin",
	Long: `Fetch the pending units for an admin and print them as a table.
By default only orders awaiting admin verification are listed.`,
	RunE: runOrders,
}

func init() {
	f := ordersCmd.Flags()
	f.StringVar(&ordersFlags.admin, "admin", "", "admin mobile (defaults to worker.admin_mobile)")
	f.StringVar(&ordersFlags.search, "search", "", "match order id or investor name")
	f.StringVar(&ordersFlags.payment, "payment", models.AllPayments, "payment type filter")
	f.StringVar(&ordersFlags.status, "status", models.StatusPendingAdminVerification, "payment status filter")
	f.BoolVar(&ordersFlags.all, "all", false, "list every order regardless of filters")
	rootCmd.AddCommand(ordersCmd)
}

func runOrders(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	admin := ordersFlags.admin
	if admin == "" {
		admin = cfg.Worker.AdminMobile
	}
	if admin == "" {
		return errors.New("an admin mobile is required, pass --admin")
	}

	a, err := newApp(cfg, "herdadmin-cli")
	if err != nil {
		return err
	}
	defer a.Close()

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Platform.Timeout+5*time.Second)
	defer cancel()

	st := a.service.FetchOrders(ctx, admin)
	if st.Orders.Error != "" {
		return errors.New(st.Orders.Error)
	}

	filters := orders.FilterState{
		SearchQuery:   ordersFlags.search,
		PaymentFilter: ordersFlags.payment,
		StatusFilter:  ordersFlags.status,
	}
	if ordersFlags.all {
		filters = orders.IdentityFilterState()
	}
	view := a.service.SetFilters(admin, filters)

	if err := renderOrders(view.Entries); err != nil {
		return err
	}
	printStats(view.Stats)
	return nil
}

func renderOrders(entries []models.OrderEntry) error {
	table := tablewriter.NewWriter(os.Stdout)
	table.Header("Order", "Investor", "Units", "Payment", "Amount", "Status", "Created")

	for _, e := range entries {
		amount := ""
		if e.Transaction != nil {
			amount = strconv.FormatFloat(e.Transaction.Amount, 'f', 2, 64)
		}
		created := ""
		if e.Order.CreatedAt != nil {
			created = e.Order.CreatedAt.Raw
		}
		row := []string{
			e.Order.ID.String(),
			e.InvestorName(),
			strconv.Itoa(e.Order.NumUnits),
			e.PaymentType(),
			amount,
			e.Order.PaymentStatus,
			created,
		}
		if err := table.Append(row); err != nil {
			return errors.Wrap(err, "failed to render orders")
		}
	}
	return table.Render()
}

func printStats(s orders.Stats) {
	fmt.Printf("pending: %d  approved: %d  rejected: %d  today: %d  total: %d\n",
		s.Pending, s.Approved, s.Rejected, s.Today, s.Total)
}

