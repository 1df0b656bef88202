package tactile

import "runtime"

// ShellCommand wraps a command line for the platform shell: `<shell> -c line`
// on Unix (shell defaults to sh), `cmd /C line` on Windows.
func ShellCommand(shell, line string) Command {
	if runtime.GOOS == "windows" {
		return Command{Binary: "cmd", Arguments: []string{"/C", line}}
	}
	if shell == "" {
		shell = "sh"
	}
	return Command{Binary: shell, Arguments: []string{"-c", line}}
}
