package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"schoolhub/internal/app/authsvc"
	"schoolhub/internal/app/grade"
	"schoolhub/internal/app/guard"
	"schoolhub/internal/app/resource"
	"schoolhub/internal/app/tokenstore"
	"schoolhub/internal/app/user"
)

type appFunc func() *app

func newLoginCmd(appFn appFunc) *cobra.Command {
	var creds authsvc.Credentials

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Sign in and store the session",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a := appFn()
			if _, err := a.session.Login(cmd.Context(), creds); err != nil {
				return err
			}
			return signedIn(cmd, a)
		},
	}
	cmd.Flags().StringVarP(&creds.Email, "email", "e", "", "account email")
	cmd.Flags().StringVarP(&creds.Password, "password", "p", "", "account password")
	return cmd
}

func newRegisterCmd(appFn appFunc) *cobra.Command {
	var (
		reg    authsvc.Registration
		fields map[string]string
	)

	cmd := &cobra.Command{
		Use:   "register",
		Short: "Create an account and sign in with it",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a := appFn()
			reg.Extra = make(map[string]any, len(fields))
			for k, v := range fields {
				reg.Extra[k] = v
			}
			if _, err := a.session.Register(cmd.Context(), reg); err != nil {
				return err
			}
			return signedIn(cmd, a)
		},
	}
	cmd.Flags().StringVarP(&reg.Email, "email", "e", "", "account email")
	cmd.Flags().StringVarP(&reg.Password, "password", "p", "", "account password")
	cmd.Flags().StringToStringVarP(&fields, "field", "f", nil, "additional registration field, e.g. -f name=Ann -f role=teacher")
	return cmd
}

func signedIn(cmd *cobra.Command, a *app) error {
	loc, err := a.router.Navigate(cmd.Context(), guard.DashboardPath)
	if err != nil {
		return err
	}

	name := a.session.DisplayName()
	if name == "" {
		name = "unknown user"
	}
	role := user.Role(a.session.Role()).Label()
	fmt.Fprintf(cmd.OutOrStdout(), "Signed in as %s (%s). Opened %s\n", name, role, loc)
	return nil
}

func newLogoutCmd(appFn appFunc) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Sign out and clear the stored session",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			appFn().session.Logout(cmd.Context())
			fmt.Fprintln(cmd.OutOrStdout(), "Signed out.")
			return nil
		},
	}
}

func newWhoamiCmd(appFn appFunc) *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Show the signed-in user",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a := appFn()
			a.session.CheckAuth(cmd.Context())

			s := a.session.Snapshot()
			if !s.IsAuthenticated() {
				fmt.Fprintln(cmd.OutOrStdout(), "Not signed in.")
				return nil
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Name:  %s\n", s.DisplayName())
			fmt.Fprintf(cmd.OutOrStdout(), "Email: %s\n", s.User.Email())
			fmt.Fprintf(cmd.OutOrStdout(), "Role:  %s\n", user.Role(s.Role).Label())
			if claims, ok := tokenstore.Peek(s.Token); ok {
				if exp := claims.Expiry(); !exp.IsZero() {
					fmt.Fprintf(cmd.OutOrStdout(), "Token expires: %s\n", exp.Local().Format(time.RFC1123))
				}
			}
			return nil
		},
	}
}

func newOpenCmd(appFn appFunc) *cobra.Command {
	return &cobra.Command{
		Use:   "open <path>",
		Short: "Resolve a page through the route guard and print where it lands",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a := appFn()
			a.session.CheckAuth(cmd.Context())

			loc, err := a.router.Navigate(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), loc)
			return nil
		},
	}
}

// listFlags registers the pagination flags shared by list commands.
func listFlags(cmd *cobra.Command, params *resource.ListParams, pageSize int) {
	cmd.Flags().IntVar(&params.Page, "page", 1, "page number")
	cmd.Flags().IntVar(&params.PerPage, "per-page", pageSize, "items per page")
	cmd.Flags().StringVar(&params.Search, "search", "", "search term")
}

// parseData decodes a --data JSON object.
func parseData(raw string) (map[string]any, error) {
	data := map[string]any{}
	if strings.TrimSpace(raw) == "" {
		return data, nil
	}
	if err := json.Unmarshal([]byte(raw), &data); err != nil {
		return nil, fmt.Errorf("--data must be a JSON object: %w", err)
	}
	return data, nil
}

// printJSON writes a response body indented, or as is when it is not JSON.
func printJSON(cmd *cobra.Command, body json.RawMessage) {
	if len(body) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "OK")
		return
	}
	var buf bytes.Buffer
	if err := json.Indent(&buf, body, "", "  "); err != nil {
		fmt.Fprintln(cmd.OutOrStdout(), string(body))
		return
	}
	fmt.Fprintln(cmd.OutOrStdout(), buf.String())
}

// crud builds the list/get/create/update/delete sub-commands shared by
// classrooms and students. page maps an optional id to the guarded page.
type crud struct {
	list   func(cmd *cobra.Command, p resource.ListParams) (json.RawMessage, error)
	get    func(cmd *cobra.Command, id string) (json.RawMessage, error)
	create func(cmd *cobra.Command, data map[string]any) (json.RawMessage, error)
	update func(cmd *cobra.Command, id string, data map[string]any) (json.RawMessage, error)
	remove func(cmd *cobra.Command, id string) (json.RawMessage, error)
	page   func(id string) string
}

func (c crud) commands(appFn appFunc, pageSize int) []*cobra.Command {
	run := func(page string, fn func(cmd *cobra.Command) (json.RawMessage, error)) func(*cobra.Command, []string) error {
		return guarded(appFn, page, func(cmd *cobra.Command, _ []string) (json.RawMessage, error) {
			return fn(cmd)
		})
	}

	var params resource.ListParams
	list := &cobra.Command{
		Use:   "list",
		Short: "List records",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(c.page(""), func(cmd *cobra.Command) (json.RawMessage, error) {
				return c.list(cmd, params)
			})(cmd, args)
		},
	}
	listFlags(list, &params, pageSize)

	get := &cobra.Command{
		Use:   "get <id>",
		Short: "Show one record",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(c.page(args[0]), func(cmd *cobra.Command) (json.RawMessage, error) {
				return c.get(cmd, args[0])
			})(cmd, args)
		},
	}

	var createData string
	create := &cobra.Command{
		Use:   "create",
		Short: "Create a record from --data",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := parseData(createData)
			if err != nil {
				return err
			}
			return run(c.page(""), func(cmd *cobra.Command) (json.RawMessage, error) {
				return c.create(cmd, data)
			})(cmd, args)
		},
	}
	create.Flags().StringVarP(&createData, "data", "d", "", "record fields as a JSON object")

	var updateData string
	update := &cobra.Command{
		Use:   "update <id>",
		Short: "Update a record from --data",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := parseData(updateData)
			if err != nil {
				return err
			}
			return run(c.page(args[0]), func(cmd *cobra.Command) (json.RawMessage, error) {
				return c.update(cmd, args[0], data)
			})(cmd, args)
		},
	}
	update.Flags().StringVarP(&updateData, "data", "d", "", "fields to change as a JSON object")

	remove := &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a record",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(c.page(args[0]), func(cmd *cobra.Command) (json.RawMessage, error) {
				return c.remove(cmd, args[0])
			})(cmd, args)
		},
	}

	return []*cobra.Command{list, get, create, update, remove}
}

// guarded runs fn after opening page, printing its response.
func guarded(appFn appFunc, page string, fn func(cmd *cobra.Command, args []string) (json.RawMessage, error)) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		if err := appFn().open(cmd.Context(), page); err != nil {
			return err
		}
		out, err := fn(cmd, args)
		if err != nil {
			return err
		}
		printJSON(cmd, out)
		return nil
	}
}

func newClassroomsCmd(appFn appFunc, pageSize int) *cobra.Command {
	cmd := &cobra.Command{Use: "classrooms", Short: "Manage classrooms"}

	c := crud{
		list: func(cmd *cobra.Command, p resource.ListParams) (json.RawMessage, error) {
			return appFn().classrooms.List(cmd.Context(), p)
		},
		get: func(cmd *cobra.Command, id string) (json.RawMessage, error) {
			return appFn().classrooms.Get(cmd.Context(), id)
		},
		create: func(cmd *cobra.Command, data map[string]any) (json.RawMessage, error) {
			return appFn().classrooms.Create(cmd.Context(), data)
		},
		update: func(cmd *cobra.Command, id string, data map[string]any) (json.RawMessage, error) {
			return appFn().classrooms.Update(cmd.Context(), id, data)
		},
		remove: func(cmd *cobra.Command, id string) (json.RawMessage, error) {
			return appFn().classrooms.Delete(cmd.Context(), id)
		},
		page: func(id string) string {
			if id == "" {
				return "/classrooms"
			}
			return "/classrooms/" + url.PathEscape(id)
		},
	}
	cmd.AddCommand(c.commands(appFn, pageSize)...)

	cmd.AddCommand(
		&cobra.Command{
			Use:   "teachers",
			Short: "List teachers a classroom can be assigned to",
			Args:  cobra.NoArgs,
			RunE: guarded(appFn, "/classrooms", func(cmd *cobra.Command, _ []string) (json.RawMessage, error) {
				return appFn().classrooms.Teachers(cmd.Context())
			}),
		},
		&cobra.Command{
			Use:   "assignable",
			Short: "List classrooms a student can be enrolled in",
			Args:  cobra.NoArgs,
			RunE: guarded(appFn, "/students", func(cmd *cobra.Command, _ []string) (json.RawMessage, error) {
				return appFn().classrooms.ForAssignment(cmd.Context())
			}),
		},
	)
	return cmd
}

func newStudentsCmd(appFn appFunc, pageSize int) *cobra.Command {
	cmd := &cobra.Command{Use: "students", Short: "Manage students"}

	c := crud{
		list: func(cmd *cobra.Command, p resource.ListParams) (json.RawMessage, error) {
			return appFn().students.List(cmd.Context(), p)
		},
		get: func(cmd *cobra.Command, id string) (json.RawMessage, error) {
			return appFn().students.Get(cmd.Context(), id)
		},
		create: func(cmd *cobra.Command, data map[string]any) (json.RawMessage, error) {
			return appFn().students.Create(cmd.Context(), data)
		},
		update: func(cmd *cobra.Command, id string, data map[string]any) (json.RawMessage, error) {
			return appFn().students.Update(cmd.Context(), id, data)
		},
		remove: func(cmd *cobra.Command, id string) (json.RawMessage, error) {
			return appFn().students.Delete(cmd.Context(), id)
		},
		page: func(string) string { return "/students" },
	}
	cmd.AddCommand(c.commands(appFn, pageSize)...)
	return cmd
}

func newProfileCmd(appFn appFunc) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "profile",
		Short: "Show the signed-in student's profile",
		Args:  cobra.NoArgs,
		RunE: guarded(appFn, "/profile", func(cmd *cobra.Command, _ []string) (json.RawMessage, error) {
			return appFn().students.Profile(cmd.Context())
		}),
	}

	var data string
	update := &cobra.Command{
		Use:   "update",
		Short: "Update the signed-in student's profile from --data",
		Args:  cobra.NoArgs,
		RunE: guarded(appFn, "/profile", func(cmd *cobra.Command, _ []string) (json.RawMessage, error) {
			fields, err := parseData(data)
			if err != nil {
				return nil, err
			}
			return appFn().students.UpdateProfile(cmd.Context(), fields)
		}),
	}
	update.Flags().StringVarP(&data, "data", "d", "", "fields to change as a JSON object")

	cmd.AddCommand(update)
	return cmd
}

func newGradesCmd(appFn appFunc, pageSize int) *cobra.Command {
	cmd := &cobra.Command{Use: "grades", Short: "Manage grades"}

	var params resource.ListParams
	list := &cobra.Command{
		Use:   "list",
		Short: "List grades",
		Args:  cobra.NoArgs,
		RunE: guarded(appFn, guard.DashboardPath, func(cmd *cobra.Command, _ []string) (json.RawMessage, error) {
			return appFn().grades.List(cmd.Context(), params)
		}),
	}
	listFlags(list, &params, pageSize)

	set := &cobra.Command{
		Use:   "set <student-id> <classroom-id> <grade>",
		Short: "Record or replace a student's grade in a classroom",
		Args:  cobra.ExactArgs(3),
		RunE: guarded(appFn, "/classrooms", func(cmd *cobra.Command, args []string) (json.RawMessage, error) {
			score, err := strconv.ParseFloat(args[2], 64)
			if err != nil {
				return nil, fmt.Errorf("grade must be a number: %w", err)
			}
			entry := grade.Entry{StudentID: args[0], ClassroomID: args[1], Grade: score}
			out, err := appFn().grades.Update(cmd.Context(), entry)
			if err == nil {
				fmt.Fprintf(cmd.OutOrStdout(), "Letter grade: %s\n", grade.Letter(score))
			}
			return out, err
		}),
	}

	cmd.AddCommand(
		list,
		set,
		&cobra.Command{
			Use:   "get <id>",
			Short: "Show one grade",
			Args:  cobra.ExactArgs(1),
			RunE: guarded(appFn, guard.DashboardPath, func(cmd *cobra.Command, args []string) (json.RawMessage, error) {
				return appFn().grades.Get(cmd.Context(), args[0])
			}),
		},
		&cobra.Command{
			Use:   "delete <id>",
			Short: "Delete a grade",
			Args:  cobra.ExactArgs(1),
			RunE: guarded(appFn, "/classrooms", func(cmd *cobra.Command, args []string) (json.RawMessage, error) {
				return appFn().grades.Delete(cmd.Context(), args[0])
			}),
		},
		&cobra.Command{
			Use:   "by-classroom <classroom-id>",
			Short: "List the grades given in a classroom",
			Args:  cobra.ExactArgs(1),
			RunE: guarded(appFn, "/classrooms", func(cmd *cobra.Command, args []string) (json.RawMessage, error) {
				return appFn().grades.ByClassroom(cmd.Context(), args[0])
			}),
		},
		&cobra.Command{
			Use:   "by-student <student-id>",
			Short: "List a student's grades",
			Args:  cobra.ExactArgs(1),
			RunE: guarded(appFn, guard.DashboardPath, func(cmd *cobra.Command, args []string) (json.RawMessage, error) {
				return appFn().grades.ByStudent(cmd.Context(), args[0])
			}),
		},
		&cobra.Command{
			Use:   "letter <grade>",
			Short: "Print the letter for a numeric grade",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				score, err := strconv.ParseFloat(args[0], 64)
				if err != nil {
					return fmt.Errorf("grade must be a number: %w", err)
				}
				fmt.Fprintln(cmd.OutOrStdout(), grade.Letter(score))
				return nil
			},
		},
	)
	return cmd
}
