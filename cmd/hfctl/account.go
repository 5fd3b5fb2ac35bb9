package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/heyfriend/heyfriend/internal/backend"
	"github.com/heyfriend/heyfriend/internal/config"
	"github.com/heyfriend/heyfriend/internal/session"
	hsync "github.com/heyfriend/heyfriend/internal/sync"
	"github.com/heyfriend/heyfriend/internal/tui/ui"
	"github.com/spf13/cobra"
)

var (
	initDefault bool

	regPhone   string
	regName    string
	regGender  string
	regAddress string
	regDOB     string

	profileQR bool
)

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Create the profile's identity",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		name, err := resolveProfile(cfg)
		if err != nil {
			return err
		}
		principal, created, err := session.EnsureIdentity(name)
		if err != nil {
			return err
		}
		if initDefault {
			// Saved from the file alone so environment overrides stay out of it.
			fileCfg, err := config.LoadOrDefault(configFlag)
			if err != nil {
				return err
			}
			fileCfg.DefaultProfile = name
			if err := config.Save(configFlag, fileCfg); err != nil {
				return err
			}
		}
		if jsonOutput {
			outputJSON(map[string]any{"profile": name, "principal": principal, "created": created})
			return nil
		}
		if created {
			fmt.Printf("Created profile %s as %s\n", name, principal)
		} else {
			fmt.Printf("Profile %s already exists as %s\n", name, principal)
		}
		return nil
	},
}

var registerCmd = &cobra.Command{
	Use:   "register",
	Short: "Register the profile with the backend",
	RunE: func(cmd *cobra.Command, args []string) error {
		reg, err := backend.ParseRegistration(regPhone, regName, regGender, regAddress, regDOB)
		if err != nil {
			return err
		}
		ctx, cancel := withTimeout()
		defer cancel()
		s, err := connect(ctx, false)
		if err != nil {
			return err
		}
		defer s.Close()

		profile, err := s.engine.RegisterUser(ctx, reg)
		if err != nil {
			return err
		}
		if profile == nil {
			fmt.Println("Registered; the profile is not readable yet, check again with hfctl profile")
			return nil
		}
		if jsonOutput {
			outputJSON(profile)
			return nil
		}
		fmt.Printf("Welcome, %s\n", profile.DisplayName)
		return nil
	},
}

var profileCmd = &cobra.Command{
	Use:   "profile",
	Short: "Show the registered profile",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := withTimeout()
		defer cancel()
		s, err := connect(ctx, true)
		if err != nil {
			return err
		}
		defer s.Close()

		p := s.engine.CallerProfile(ctx)
		if p == nil {
			return backend.ErrNotFound
		}
		role := s.engine.CallerRole(ctx).Data
		if jsonOutput {
			outputJSON(map[string]any{"profile": p, "role": role})
			return nil
		}
		fmt.Printf("Name:      %s\n", p.DisplayName)
		fmt.Printf("Phone:     %s\n", p.PhoneNumber)
		fmt.Printf("Gender:    %s\n", p.Gender)
		fmt.Printf("Address:   %s\n", p.Address)
		if !p.DateOfBirth.IsZero() {
			fmt.Printf("Born:      %s\n", p.DateOfBirth.Format(backend.DateLayout))
		}
		fmt.Printf("Role:      %s\n", role)
		fmt.Printf("Joined:    %s\n", humanize.Time(p.CreatedAt))
		fmt.Printf("Principal: %s\n", p.Principal)
		if profileQR {
			qr, err := ui.RenderQR(ui.ProfileLink(string(p.Principal), p.PhoneNumber))
			if err != nil {
				return err
			}
			fmt.Println()
			fmt.Print(qr)
		}
		return nil
	},
}

var searchCmd = &cobra.Command{
	Use:   "search <name or phone>",
	Short: "Find people by display name or phone number",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := withTimeout()
		defer cancel()
		s, err := connect(ctx, true)
		if err != nil {
			return err
		}
		defer s.Close()

		res := s.engine.SearchUsers(ctx, strings.Join(args, " "))
		if res.Err != nil {
			return res.Err
		}
		users := hsync.Candidates(res.Data, s.principal)
		if jsonOutput {
			outputJSON(users)
			return nil
		}
		if len(users) == 0 {
			fmt.Println("No one found.")
			return nil
		}
		for _, u := range users {
			fmt.Printf("%-24s %-16s %s\n", u.DisplayName, u.PhoneNumber, u.Principal)
		}
		return nil
	},
}

var profilesCmd = &cobra.Command{
	Use:   "profiles",
	Short: "List local profiles",
	RunE: func(cmd *cobra.Command, args []string) error {
		entries, err := os.ReadDir(filepath.Join(session.BaseDir(), "profiles"))
		if err != nil && !os.IsNotExist(err) {
			return err
		}
		type row struct {
			Name      string `json:"name"`
			Principal string `json:"principal,omitempty"`
		}
		var rows []row
		for _, e := range entries {
			if !e.IsDir() {
				continue
			}
			principal, _ := session.LoadIdentity(e.Name())
			rows = append(rows, row{Name: e.Name(), Principal: principal})
		}
		if jsonOutput {
			outputJSON(rows)
			return nil
		}
		if len(rows) == 0 {
			fmt.Println("No profiles found. Create one with hfctl init.")
			return nil
		}
		for _, r := range rows {
			principal := r.Principal
			if principal == "" {
				principal = "(no identity)"
			}
			fmt.Printf("%-20s %s\n", r.Name, principal)
		}
		return nil
	},
}

func init() {
	initCmd.Flags().BoolVar(&initDefault, "default", false, "make this the default profile")

	registerCmd.Flags().StringVar(&regPhone, "phone", "", "phone number (required)")
	registerCmd.Flags().StringVar(&regName, "name", "", "display name (required)")
	registerCmd.Flags().StringVar(&regGender, "gender", "", "female, male or other")
	registerCmd.Flags().StringVar(&regAddress, "address", "", "postal address")
	registerCmd.Flags().StringVar(&regDOB, "dob", "", "date of birth, YYYY-MM-DD")
	_ = registerCmd.MarkFlagRequired("phone")
	_ = registerCmd.MarkFlagRequired("name")

	profileCmd.Flags().BoolVar(&profileQR, "qr", false, "print a QR code linking to the profile")

	rootCmd.AddCommand(initCmd, registerCmd, profileCmd, searchCmd, profilesCmd)
}
