package pages

import (
	"context"
	"fmt"
	"strings"

	"github.com/damongreen123/fpl-ccd-configuration/internal/driver"
	"github.com/damongreen123/fpl-ccd-configuration/internal/failure"
	"github.com/damongreen123/fpl-ccd-configuration/internal/tabs"
)

// Task statuses shown next to the application tasks.
const (
	TaskFinished      = "Finished"
	TaskCompleted     = "Information added"
	TaskInProgress    = "In progress"
	TaskCannotSendYet = "Cannot send yet"
)

const tasksErrorsTitle = "Why can't I submit my application?"

var actionsDropdown = driver.ByClass("ccd-dropdown")

// CaseViewPage is a single case: its title, next-step dropdown, tasks and tabs.
type CaseViewPage struct {
	a *Actor
}

// GoToNewActions starts the event named action from the next-step dropdown.
// The case view occasionally renders without the dropdown; the page is
// refreshed when that happens before the browser has left the case.
func (p *CaseViewPage) GoToNewActions(ctx context.Context, action string) error {
	d := p.a.d
	start, err := d.CurrentURL(ctx)
	if err != nil {
		return err
	}
	return p.a.RetryUntilExists(ctx, func(ctx context.Context) error {
		n, err := d.CountVisible(ctx, actionsDropdown)
		if err != nil {
			return err
		}
		if n > 0 {
			if err := d.SelectOption(ctx, actionsDropdown, action); err != nil {
				return err
			}
			return d.Click(ctx, driver.Button("Go"))
		}
		now, err := d.CurrentURL(ctx)
		if err != nil {
			return err
		}
		if now == start || !strings.Contains(now, "http") {
			p.a.logger.Info("page refresh", "action", action)
			return d.Refresh(ctx)
		}
		return nil
	}, eventTrigger)
}

func actionOption(action string) driver.Selector {
	return actionsDropdown.Append("//option[" + driver.TextEquals(action) + "]")
}

// CheckActionsAreAvailable checks every action is offered in the dropdown.
func (p *CaseViewPage) CheckActionsAreAvailable(ctx context.Context, actions []string) error {
	return p.checkActions(ctx, actions, true)
}

// CheckActionsAreNotAvailable checks no action is offered in the dropdown.
func (p *CaseViewPage) CheckActionsAreNotAvailable(ctx context.Context, actions []string) error {
	return p.checkActions(ctx, actions, false)
}

func (p *CaseViewPage) checkActions(ctx context.Context, actions []string, want bool) error {
	if err := p.a.poller.Check(ctx, driver.Visible(p.a.d, actionsDropdown)); err != nil {
		return err
	}
	var wrong []string
	for _, action := range actions {
		n, err := p.a.d.Count(ctx, actionOption(action))
		if err != nil {
			return err
		}
		if (n > 0) != want {
			wrong = append(wrong, action)
		}
	}
	if len(wrong) == 0 {
		return nil
	}
	verb := "missing"
	if !want {
		verb = "unexpectedly offered"
	}
	return failure.New(failure.CodeAssertionMismatch, fmt.Sprintf("actions %s: %s", verb, strings.Join(wrong, ", ")), nil)
}

func taskLink(task string) driver.Selector {
	return driver.XPath(`//p/a[text()=` + driver.Literal(task) + `]`)
}

// CheckTaskStatus checks the status icon of task. An empty status means the
// task has no icon yet.
func (p *CaseViewPage) CheckTaskStatus(ctx context.Context, task, status string) error {
	link := taskLink(task)
	if err := p.a.poller.Check(ctx, driver.Exists(p.a.d, link)); err != nil {
		return err
	}
	icon := link.Append("/../img")
	if status != "" {
		return p.a.SeeElement(ctx, icon.Append("[@title="+driver.Literal(status)+"]"))
	}
	if err := p.a.SeeElement(ctx, link); err != nil {
		return err
	}
	return p.a.DontSeeElement(ctx, icon)
}

func (p *CaseViewPage) CheckTaskIsFinished(ctx context.Context, task string) error {
	return p.CheckTaskStatus(ctx, task, TaskFinished)
}

func (p *CaseViewPage) CheckTaskIsCompleted(ctx context.Context, task string) error {
	return p.CheckTaskStatus(ctx, task, TaskCompleted)
}

func (p *CaseViewPage) CheckTaskIsInProgress(ctx context.Context, task string) error {
	return p.CheckTaskStatus(ctx, task, TaskInProgress)
}

func (p *CaseViewPage) CheckTaskIsNotStarted(ctx context.Context, task string) error {
	return p.CheckTaskStatus(ctx, task, "")
}

// CheckTaskIsAvailable opens the task's event and cancels back to the case.
func (p *CaseViewPage) CheckTaskIsAvailable(ctx context.Context, task string) error {
	if err := p.StartTask(ctx, task); err != nil {
		return err
	}
	return p.a.RetryUntilExists(ctx, p.a.ClickAction("Cancel"), caseTitle)
}

// CheckTaskIsUnavailable checks the task cannot be started yet.
func (p *CaseViewPage) CheckTaskIsUnavailable(ctx context.Context, task string) error {
	if err := p.CheckTaskStatus(ctx, task, TaskCannotSendYet); err != nil {
		return err
	}
	href, ok, err := p.a.d.Attribute(ctx, taskLink(task), "href")
	if err != nil {
		return err
	}
	if ok && href != "" {
		return &failure.MismatchError{Path: []string{task, "href"}, Expected: failure.Absent, Actual: href}
	}
	return nil
}

// CheckTasksHaveErrors expands the task errors and compares them in order.
func (p *CaseViewPage) CheckTasksHaveErrors(ctx context.Context, expected []string) error {
	if err := p.a.See(ctx, tasksErrorsTitle); err != nil {
		return err
	}
	if err := p.a.d.Click(ctx, driver.XPath(`//p[text()=`+driver.Literal(tasksErrorsTitle)+`]`)); err != nil {
		return err
	}
	texts, err := p.a.d.Texts(ctx, driver.XPath("//details//div"))
	if err != nil {
		return err
	}
	var actual []string
	if len(texts) > 0 {
		for _, line := range strings.Split(texts[0], "\n") {
			if line = strings.TrimSpace(line); line != "" {
				actual = append(actual, line)
			}
		}
	}
	if strings.Join(actual, "\n") != strings.Join(expected, "\n") {
		return &failure.MismatchError{
			Path:     []string{tasksErrorsTitle},
			Expected: strings.Join(expected, "\n"),
			Actual:   strings.Join(actual, "\n"),
		}
	}
	return nil
}

// CheckTasksHaveNoErrors checks the errors summary is not shown.
func (p *CaseViewPage) CheckTasksHaveNoErrors(ctx context.Context) error {
	return p.a.DontSee(ctx, tasksErrorsTitle)
}

// StartTask opens the task's event.
func (p *CaseViewPage) StartTask(ctx context.Context, task string) error {
	return p.a.RetryUntilExists(ctx, func(ctx context.Context) error {
		return p.a.d.Click(ctx, driver.Link(task))
	}, eventTrigger)
}

// SelectTab activates a tab and returns its panel.
func (p *CaseViewPage) SelectTab(ctx context.Context, tab string) (tabs.Panel, error) {
	return p.a.SelectTab(ctx, tab)
}

// CheckTabIsNotPresent checks the tab is not offered at all.
func (p *CaseViewPage) CheckTabIsNotPresent(ctx context.Context, tab string) error {
	return p.a.nav.AssertAbsent(ctx, tab)
}

// SeeInCaseTitle checks the case title contains value.
func (p *CaseViewPage) SeeInCaseTitle(ctx context.Context, value string) error {
	return p.a.SeeElement(ctx, caseTitle.Append("[contains(., "+driver.Literal(value)+")]"))
}
