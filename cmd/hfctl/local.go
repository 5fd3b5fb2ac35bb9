package main

import (
	"fmt"

	"github.com/heyfriend/heyfriend/internal/overlay"
	"github.com/spf13/cobra"
)

// Commands here touch only the profile's local store.

var lockCmd = &cobra.Command{
	Use:   "lock <conversation-id>",
	Short: "Require the PIN to open a conversation",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withOverlay(func(s *overlay.Store) error {
			return s.Locks().Set(args[0], true)
		})
	},
}

var unlockCmd = &cobra.Command{
	Use:   "unlock <conversation-id>",
	Short: "Stop requiring the PIN for a conversation",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withOverlay(func(s *overlay.Store) error {
			return s.Locks().Set(args[0], false)
		})
	},
}

var lockedCmd = &cobra.Command{
	Use:   "locked",
	Short: "List locked conversations",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withOverlay(func(s *overlay.Store) error {
			printList(s.Locks().List(), "No locked conversations.")
			return nil
		})
	},
}

var excludeCmd = &cobra.Command{
	Use:   "exclude [phone]",
	Short: "Hide your status from a contact, or list who is hidden",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withOverlay(func(s *overlay.Store) error {
			if len(args) == 0 {
				printList(s.StatusExclusions().List(), "Everyone can see your status.")
				return nil
			}
			return s.StatusExclusions().Set(args[0], true)
		})
	},
}

var includeCmd = &cobra.Command{
	Use:   "include <phone>",
	Short: "Show your status to a contact again",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withOverlay(func(s *overlay.Store) error {
			return s.StatusExclusions().Set(args[0], false)
		})
	},
}

var themeCmd = &cobra.Command{
	Use:   "theme [light|dark|pink]",
	Short: "Show or set the theme",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withOverlay(func(s *overlay.Store) error {
			if len(args) == 0 {
				fmt.Println(s.Theme())
				return nil
			}
			t, err := overlay.ParseTheme(args[0])
			if err != nil {
				return err
			}
			return s.SetTheme(t)
		})
	},
}

var langCmd = &cobra.Command{
	Use:     "lang [en|sw|ar|zh]",
	Aliases: []string{"language"},
	Short:   "Show or set the interface language",
	Args:    cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withOverlay(func(s *overlay.Store) error {
			if len(args) == 0 {
				fmt.Println(s.Language())
				return nil
			}
			l, err := overlay.ParseLanguage(args[0])
			if err != nil {
				return err
			}
			return s.SetLanguage(l)
		})
	},
}

func init() {
	rootCmd.AddCommand(lockCmd, unlockCmd, lockedCmd, excludeCmd, includeCmd, themeCmd, langCmd)
}

func withOverlay(fn func(s *overlay.Store) error) error {
	store, err := openOverlay()
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()
	return fn(store)
}

func printList(ids []string, empty string) {
	if jsonOutput {
		if ids == nil {
			ids = []string{}
		}
		outputJSON(ids)
		return
	}
	if len(ids) == 0 {
		fmt.Println(empty)
		return
	}
	for _, id := range ids {
		fmt.Println(id)
	}
}
