package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	outcel "github.com/xetiic/busdesk/internal/adapter/outbound/cel"
	"github.com/xetiic/busdesk/internal/domain/auth"
	"github.com/xetiic/busdesk/internal/domain/guard"
	"github.com/xetiic/busdesk/internal/domain/session"
)

var (
	checkRole       string
	checkPermission string
	checkExpr       string
	checkPath       string
)

var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Evaluate an access requirement against the session",
	Long: `Evaluate what a protected view would render for the current session.

Prints one of: content, loading, redirect_to_sign_in, forbidden.
The exit code is 0 for content, 1 otherwise, so check composes in scripts:

  busdesk check --permission users.write --path /users && open-users-view`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		a, err := newApp(ctx)
		if err != nil {
			return err
		}
		defer a.Close()

		ctx = session.NewContext(ctx, a.manager)
		decision, err := decide(ctx)
		if err != nil {
			return err
		}

		switch decision.Outcome {
		case guard.ShowContent:
			fmt.Println("content")
			return nil
		case guard.RedirectToSignIn:
			fmt.Printf("redirect_to_sign_in (return to %s)\n", decision.RedirectPath)
		case guard.ShowForbidden:
			fmt.Printf("forbidden (%s: %s)\n", decision.Kind, decision.Required)
		default:
			fmt.Println(decision.Outcome)
		}
		// Non-content outcomes exit 1 so check composes in scripts.
		a.Close()
		os.Exit(1)
		return nil
	},
}

// decide builds the requirement from flags and runs the guard against the
// ambient session manager.
func decide(ctx context.Context) (guard.Decision, error) {
	var evaluator guard.ExprEvaluator
	if checkExpr != "" {
		ev, err := outcel.NewEvaluator()
		if err != nil {
			return guard.Decision{}, err
		}
		evaluator = ev
	}

	req := guard.Requirement{
		Role:       auth.Role(checkRole),
		Permission: auth.Permission(checkPermission),
		Expr:       checkExpr,
	}
	if req.Role != "" && !req.Role.IsValid() {
		return guard.Decision{}, fmt.Errorf("unknown role %q", checkRole)
	}

	snap := session.FromContext(ctx).Snapshot()
	return guard.New(evaluator).Decide(ctx, snap, req, checkPath)
}

func init() {
	checkCmd.Flags().StringVar(&checkRole, "role", "", "required role (admin always passes)")
	checkCmd.Flags().StringVar(&checkPermission, "permission", "", "required permission, e.g. routes.write")
	checkCmd.Flags().StringVar(&checkExpr, "expr", "", `scope expression, e.g. 'identity.company_id == "co-7"'`)
	checkCmd.Flags().StringVar(&checkPath, "path", "/", "view path used as the sign-in return target")
	rootCmd.AddCommand(checkCmd)
}
