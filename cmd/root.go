package cmd

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"runtime"
	"slices"
	"strings"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "hprofscan",
	Short: "Inspect JVM heap dumps in HPROF format",
	Long: `hprofscan walks .hprof heap dumps without loading them into memory:
record inventories, loaded classes, heap segment contents and the
largest classes by shallow size.`,

	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		if cmd.Name() == "install" || cmd.Name() == "version" || cmd.Name() == "help" {
			return
		}

		if !isShellSupported() {
			return // Skip auto-setup for unsupported shells
		}

		if !completionsExist() {
			if installCompletions(cmd.Root()) == nil {
				fmt.Println("Shell completions installed; restart your shell to enable tab completion")
			}
		}
	},
}

var installCmd = &cobra.Command{
	Use:   "install",
	Short: "Install shell completions",
	Run: func(cmd *cobra.Command, args []string) {
		if !isInPath() {
			printPathInstructions()
			return
		}

		if !isShellSupported() {
			fmt.Printf("Shell completion not supported for: %s\n", detectShell())
			fmt.Println("Supported shells: bash, zsh, fish, powershell")
			return
		}

		if completionsExist() {
			fmt.Println("Already configured")
			return
		}

		if err := installCompletions(cmd.Root()); err != nil {
			fmt.Printf("Failed: %v\n", err)
		} else {
			fmt.Println("Done. Restart your shell to enable tab completion.")
		}
	},
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

func completionsExist() bool {
	home, _ := os.UserHomeDir()

	paths := map[string]string{
		"bash":       filepath.Join(home, ".local/share/bash-completion/completions/hprofscan"),
		"zsh":        filepath.Join(home, ".zsh/completions/_hprofscan"),
		"fish":       filepath.Join(home, ".config/fish/completions/hprofscan.fish"),
		"powershell": filepath.Join(home, "hprofscan_completion.ps1"),
	}

	path := paths[detectShell()]
	_, err := os.Stat(path)
	return err == nil
}

func isShellSupported() bool {
	shell := detectShell()
	return shell == "bash" || shell == "zsh" || shell == "fish" || shell == "powershell"
}

func detectShell() string {
	if runtime.GOOS == "windows" {
		return "powershell"
	}

	shell := filepath.Base(os.Getenv("SHELL"))
	if shell == "" {
		return "bash"
	}
	return shell
}

type completionConfig struct {
	dir     string
	file    string
	genFunc func(io.Writer) error
}

func installCompletions(rootCmd *cobra.Command) error {
	home, _ := os.UserHomeDir()
	shell := detectShell()

	configs := map[string]completionConfig{
		"bash": {
			dir:     filepath.Join(home, ".local/share/bash-completion/completions"),
			file:    "hprofscan",
			genFunc: rootCmd.GenBashCompletion,
		},
		"zsh": {
			dir:     filepath.Join(home, ".zsh/completions"),
			file:    "_hprofscan",
			genFunc: rootCmd.GenZshCompletion,
		},
		"fish": {
			dir:     filepath.Join(home, ".config/fish/completions"),
			file:    "hprofscan.fish",
			genFunc: func(w io.Writer) error { return rootCmd.GenFishCompletion(w, true) },
		},
		"powershell": {
			dir:     home,
			file:    "hprofscan_completion.ps1",
			genFunc: rootCmd.GenPowerShellCompletionWithDesc,
		},
	}

	config, ok := configs[shell]
	if !ok {
		return fmt.Errorf("unsupported shell: %s", shell)
	}

	if err := os.MkdirAll(config.dir, 0755); err != nil {
		return err
	}

	file, err := os.Create(filepath.Join(config.dir, config.file))
	if err != nil {
		return err
	}
	defer file.Close()

	return config.genFunc(file)
}

func isInPath() bool {
	execPath, err := os.Executable()
	if err != nil {
		return false
	}

	pathEnv := os.Getenv("PATH")
	paths := strings.Split(pathEnv, string(os.PathListSeparator))
	execDir := filepath.Dir(execPath)

	return slices.Contains(paths, execDir)
}

func printPathInstructions() {
	execPath, _ := os.Executable()
	execDir := filepath.Dir(execPath)

	fmt.Printf("hprofscan not in PATH. Binary location: %s\n\n", execPath)

	if runtime.GOOS == "windows" {
		fmt.Printf("Add to PATH: %s\n", execDir)
	} else {
		fmt.Printf("Add to shell profile: export PATH=\"%s:$PATH\"\n", execDir)
		fmt.Printf("Or copy to: /usr/local/bin\n")
	}
}

func init() {
	rootCmd.AddCommand(installCmd)
}
