package e2e

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/cucumber/godog"

	"leasekeeper/e2e/steps/common"
	"leasekeeper/internal/scheduler"
)

// RegisterSteps registers all step definitions.
func RegisterSteps(ctx *godog.ScenarioContext, tc *TestContext) {
	common.RegisterSteps(ctx, tc)

	// Setup
	ctx.Step(`^today is "([^"]*)"$`, tc.todayIs)
	ctx.Step(`^an active account "([^"]*)"$`, tc.anActiveAccount)
	ctx.Step(`^a unit "([^"]*)" with a tenant "([^"]*)"$`, tc.aUnitWithATenant)

	// Leases
	ctx.Step(`^I create a lease "([^"]*)" on unit "([^"]*)" for tenant "([^"]*)" from "([^"]*)" to "([^"]*)"$`, tc.createLease)
	ctx.Step(`^I terminate lease "([^"]*)"$`, tc.terminateLease)
	ctx.Step(`^I get lease "([^"]*)"$`, tc.getLease)
	ctx.Step(`^the status sweep runs$`, tc.statusSweepRuns)

	// Notifications
	ctx.Step(`^the notification thresholds are "([^"]*)"$`, tc.notificationThresholdsAre)
	ctx.Step(`^the delivery channel is (failing|working)$`, tc.deliveryChannelIs)
	ctx.Step(`^the daily notification run happens$`, tc.dailyRunHappens)
	ctx.Step(`^I trigger notifications for my account$`, tc.triggerForAccount)
	ctx.Step(`^the run report shows (\d+) created$`, tc.runReportShowsCreated)
	ctx.Step(`^there should be (\d+) "([^"]*)" notifications?$`, tc.thereShouldBeNotifications)
	ctx.Step(`^every failed notification has an error$`, tc.everyFailedNotificationHasAnError)
	ctx.Step(`^I retry all failed notifications$`, tc.retryAllFailed)
}

func (tc *TestContext) todayIs(ctx context.Context, date string) error {
	day, err := time.Parse(time.DateOnly, date)
	if err != nil {
		return fmt.Errorf("bad date %q: %w", date, err)
	}
	tc.Clock.Set(day.Add(6 * time.Hour))
	return nil
}

func (tc *TestContext) anActiveAccount(ctx context.Context, name string) error {
	body := map[string]string{"name": name, "notification_email": "ops@example.com"}
	if err := tc.Do(http.MethodPost, "/admin/accounts", body, tc.adminHeaders()); err != nil {
		return err
	}
	accountID, err := tc.createdID()
	if err != nil {
		return err
	}
	tc.AccountID = accountID
	return nil
}

func (tc *TestContext) aUnitWithATenant(ctx context.Context, unit, tenant string) error {
	if err := tc.Do(http.MethodPost, "/properties", map[string]string{"address": "1 Main St, " + unit}, tc.accountHeaders()); err != nil {
		return err
	}
	propertyID, err := tc.createdID()
	if err != nil {
		return err
	}

	body := map[string]string{"property_id": propertyID, "apartment_number": unit}
	if err := tc.Do(http.MethodPost, "/units", body, tc.accountHeaders()); err != nil {
		return err
	}
	if tc.IDs["unit:"+unit], err = tc.createdID(); err != nil {
		return err
	}

	if err := tc.Do(http.MethodPost, "/tenants", map[string]string{"name": tenant}, tc.accountHeaders()); err != nil {
		return err
	}
	tc.IDs["tenant:"+tenant], err = tc.createdID()
	return err
}

func (tc *TestContext) createLease(ctx context.Context, name, unit, tenant, start, end string) error {
	body := map[string]any{
		"unit_id":        tc.IDs["unit:"+unit],
		"tenant_id":      tc.IDs["tenant:"+tenant],
		"start_date":     start,
		"end_date":       end,
		"monthly_rent":   5200,
		"payment_target": "bank transfer",
	}
	if err := tc.Do(http.MethodPost, "/leases", body, tc.accountHeaders()); err != nil {
		return err
	}
	if tc.GetLastResponseStatus() == http.StatusCreated {
		leaseID, err := tc.createdID()
		if err != nil {
			return err
		}
		tc.IDs["lease:"+name] = leaseID
	}
	return nil
}

func (tc *TestContext) leaseID(name string) (string, error) {
	leaseID, ok := tc.IDs["lease:"+name]
	if !ok {
		return "", fmt.Errorf("lease %q was never created", name)
	}
	return leaseID, nil
}

func (tc *TestContext) terminateLease(ctx context.Context, name string) error {
	leaseID, err := tc.leaseID(name)
	if err != nil {
		return err
	}
	return tc.Do(http.MethodPost, "/leases/"+leaseID+"/terminate", nil, tc.accountHeaders())
}

func (tc *TestContext) getLease(ctx context.Context, name string) error {
	leaseID, err := tc.leaseID(name)
	if err != nil {
		return err
	}
	return tc.Do(http.MethodGet, "/leases/"+leaseID, nil, tc.accountHeaders())
}

func (tc *TestContext) statusSweepRuns(ctx context.Context) error {
	if err := tc.Do(http.MethodPost, "/admin/jobs/"+scheduler.SweepJobName+"/run", nil, tc.adminHeaders()); err != nil {
		return err
	}
	return tc.expect(http.StatusNoContent)
}

func (tc *TestContext) notificationThresholdsAre(ctx context.Context, csv string) error {
	var days []int
	for _, part := range strings.Split(csv, ",") {
		d, err := strconv.Atoi(strings.TrimSpace(part))
		if err != nil {
			return fmt.Errorf("bad threshold %q: %w", part, err)
		}
		days = append(days, d)
	}
	body := map[string][]int{"days_before_expiration": days}
	if err := tc.Do(http.MethodPut, "/notifications/settings", body, tc.accountHeaders()); err != nil {
		return err
	}
	return tc.expect(http.StatusOK)
}

func (tc *TestContext) deliveryChannelIs(ctx context.Context, state string) error {
	tc.Sender.failing.Store(state == "failing")
	return nil
}

func (tc *TestContext) dailyRunHappens(ctx context.Context) error {
	if err := tc.Do(http.MethodPost, "/admin/notifications/trigger", nil, tc.adminHeaders()); err != nil {
		return err
	}
	return tc.expect(http.StatusOK)
}

func (tc *TestContext) triggerForAccount(ctx context.Context) error {
	if err := tc.Do(http.MethodPost, "/notifications/trigger", nil, tc.accountHeaders()); err != nil {
		return err
	}
	return tc.expect(http.StatusOK)
}

func (tc *TestContext) runReportShowsCreated(ctx context.Context, want int) error {
	var report scheduler.RunReport
	if err := tc.decode(&report); err != nil {
		return err
	}
	created := 0
	for _, scope := range report.Scopes {
		if scope.Error != "" {
			return fmt.Errorf("scope %s failed: %s", scope.AccountID, scope.Error)
		}
		created += scope.Created
	}
	if created != want {
		return fmt.Errorf("expected %d created but report shows %d", want, created)
	}
	return nil
}

type notificationItem struct {
	ID     string  `json:"id"`
	Status string  `json:"status"`
	Error  *string `json:"error"`
}

func (tc *TestContext) listNotifications(status string) ([]notificationItem, error) {
	if err := tc.Do(http.MethodGet, "/notifications?page_size=100&status="+status, nil, tc.accountHeaders()); err != nil {
		return nil, err
	}
	if err := tc.expect(http.StatusOK); err != nil {
		return nil, err
	}
	var page struct {
		Items []notificationItem `json:"items"`
	}
	if err := tc.decode(&page); err != nil {
		return nil, err
	}
	return page.Items, nil
}

func (tc *TestContext) thereShouldBeNotifications(ctx context.Context, want int, status string) error {
	items, err := tc.listNotifications(status)
	if err != nil {
		return err
	}
	if len(items) != want {
		return fmt.Errorf("expected %d %s notifications but got %d", want, status, len(items))
	}
	return nil
}

func (tc *TestContext) everyFailedNotificationHasAnError(ctx context.Context) error {
	items, err := tc.listNotifications("FAILED")
	if err != nil {
		return err
	}
	for _, n := range items {
		if n.Error == nil || *n.Error == "" {
			return fmt.Errorf("notification %s failed without an error", n.ID)
		}
	}
	return nil
}

func (tc *TestContext) retryAllFailed(ctx context.Context) error {
	items, err := tc.listNotifications("FAILED")
	if err != nil {
		return err
	}
	ids := make([]string, 0, len(items))
	for _, n := range items {
		ids = append(ids, n.ID)
	}
	if err := tc.Do(http.MethodPost, "/notifications/retry", map[string][]string{"ids": ids}, tc.accountHeaders()); err != nil {
		return err
	}
	return tc.expect(http.StatusOK)
}
