// Copyright 2025 KrakLabs
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published
// by the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU Affero General Public License for more details.
//
// You should have received a copy of the GNU Affero General Public License
// along with this program. If not, see <https://www.gnu.org/licenses/>.
//
// For commercial licensing, contact: licensing@kraklabs.com
//
// SPDX-License-Identifier: AGPL-3.0-or-later

package main

import (
	"fmt"
	"io"
	"os"

	flag "github.com/spf13/pflag"

	"github.com/kraklabs/jfacts/internal/errors"
)

const extractFlagWords = "--output --append --no-statements --no-expressions --no-generics --no-project --explore-archives --flush-threshold --register-capacity --workers --metrics-addr --archive --exclude"

// bashCompletionTemplate is the bash completion script for jfacts.
const bashCompletionTemplate = `#!/bin/bash

# Bash completion script for jfacts
# Installation:
#   source <(jfacts completion bash)
#   Or add to ~/.bashrc:
#   echo 'source <(jfacts completion bash)' >> ~/.bashrc

_jfacts_completion() {
    local cur prev commands
    commands="init extract archive status reset completion"

    cur="${COMP_WORDS[COMP_CWORD]}"
    prev="${COMP_WORDS[COMP_CWORD-1]}"

    if [ $COMP_CWORD -eq 1 ]; then
        if [[ ${cur} == -* ]] ; then
            COMPREPLY=( $(compgen -W "--version --json --no-color --debug --config -q -v" -- ${cur}) )
        else
            COMPREPLY=( $(compgen -W "${commands}" -- ${cur}) )
        fi
        return 0
    fi

    local cmd="${COMP_WORDS[1]}"
    case "${cmd}" in
        init)
            if [[ ${cur} == -* ]] ; then
                COMPREPLY=( $(compgen -W "--force --yes --project-id --output --root --exclude --jar" -- ${cur}) )
            fi
            ;;
        extract)
            if [[ ${cur} == -* ]] ; then
                COMPREPLY=( $(compgen -W "` + extractFlagWords + `" -- ${cur}) )
            fi
            ;;
        archive)
            if [[ ${cur} == -* ]] ; then
                COMPREPLY=( $(compgen -W "--output --append --no-generics" -- ${cur}) )
            else
                COMPREPLY=( $(compgen -f -X '!*.jar' -- ${cur}) )
            fi
            ;;
        status)
            if [[ ${cur} == -* ]] ; then
                COMPREPLY=( $(compgen -W "--json" -- ${cur}) )
            fi
            ;;
        reset)
            if [[ ${cur} == -* ]] ; then
                COMPREPLY=( $(compgen -W "--yes" -- ${cur}) )
            fi
            ;;
        completion)
            if [ $COMP_CWORD -eq 2 ]; then
                COMPREPLY=( $(compgen -W "bash zsh fish" -- ${cur}) )
            fi
            ;;
    esac
}

complete -F _jfacts_completion jfacts
`

// zshCompletionTemplate is the zsh completion script for jfacts.
const zshCompletionTemplate = `#compdef jfacts

# Zsh completion script for jfacts
# Installation:
#   jfacts completion zsh > "${fpath[1]}/_jfacts"
#   rm -f ~/.zcompdump; compinit

_jfacts() {
    local -a commands
    commands=(
        'init:Create .jfacts/project.yaml configuration'
        'extract:Extract facts from sources and jars'
        'archive:Extract facts from compiled jars only'
        'status:Show the last run summary'
        'reset:Remove the output and run summary'
        'completion:Generate shell completion script'
    )

    _arguments -C \
        '(- *)--version[Show version and exit]' \
        '--json[Machine-readable output]' \
        '--no-color[Disable colored output]' \
        '--debug[Enable debug logging]' \
        '--config[Path to .jfacts/project.yaml]:config file:_files -g "*.yaml"' \
        '1: :->command' \
        '*:: :->args'

    case $state in
        command)
            _describe 'command' commands
            ;;
        args)
            case $words[1] in
                init)
                    _arguments \
                        '--force[Overwrite existing configuration]' \
                        '--yes[Use defaults]' \
                        '--project-id[Project identifier]:id:' \
                        '--output[Output file]:file:_files' \
                        '*--root[Source root]:root:_files' \
                        '*--exclude[Exclude glob]:glob:' \
                        '*--jar[Classpath jar]:jar:_files -g "*.jar"'
                    ;;
                extract)
                    _arguments \
                        '--output[Output file]:file:_files' \
                        '--append[Append to the output file]' \
                        '--no-statements[Skip statements]' \
                        '--no-expressions[Skip expression kinds]' \
                        '--no-generics[Skip generics]' \
                        '--no-project[Skip project entities]' \
                        '--explore-archives[Expand compiled-only declarations]' \
                        '--flush-threshold[Emits per flush]:count:' \
                        '--register-capacity[Visited-set capacity]:count:' \
                        '--workers[Parallel parsers]:count:' \
                        '--metrics-addr[Prometheus metrics address]:address:' \
                        '*--archive[Extra jar to extract]:jar:_files -g "*.jar"' \
                        '*--exclude[Exclude glob]:glob:'
                    ;;
                archive)
                    _arguments \
                        '--output[Output file]:file:_files' \
                        '--append[Append to the output file]' \
                        '--no-generics[Skip generics]' \
                        '*:jar:_files -g "*.jar"'
                    ;;
                status)
                    _arguments \
                        '--json[Output as JSON]'
                    ;;
                reset)
                    _arguments \
                        '--yes[Confirm the reset]'
                    ;;
                completion)
                    _arguments \
                        '1:shell:(bash zsh fish)'
                    ;;
            esac
            ;;
    esac
}

_jfacts
`

// fishCompletionTemplate is the fish completion script for jfacts.
const fishCompletionTemplate = `# Fish completion script for jfacts
# Installation:
#   jfacts completion fish > ~/.config/fish/completions/jfacts.fish

complete -c jfacts -f -n "__fish_use_subcommand" -a "init" -d "Create .jfacts/project.yaml configuration"
complete -c jfacts -f -n "__fish_use_subcommand" -a "extract" -d "Extract facts from sources and jars"
complete -c jfacts -f -n "__fish_use_subcommand" -a "archive" -d "Extract facts from compiled jars only"
complete -c jfacts -f -n "__fish_use_subcommand" -a "status" -d "Show the last run summary"
complete -c jfacts -f -n "__fish_use_subcommand" -a "reset" -d "Remove the output and run summary (destructive!)"
complete -c jfacts -f -n "__fish_use_subcommand" -a "completion" -d "Generate shell completion script"

complete -c jfacts -l version -d "Show version and exit"
complete -c jfacts -l json -d "Machine-readable output"
complete -c jfacts -l no-color -d "Disable colored output"
complete -c jfacts -l debug -d "Enable debug logging"
complete -c jfacts -l config -d "Path to .jfacts/project.yaml" -r

complete -c jfacts -n "__fish_seen_subcommand_from init" -l force -d "Overwrite existing configuration"
complete -c jfacts -n "__fish_seen_subcommand_from init" -l yes -s y -d "Use defaults"
complete -c jfacts -n "__fish_seen_subcommand_from init" -l project-id -d "Project identifier" -r
complete -c jfacts -n "__fish_seen_subcommand_from init" -l root -d "Source root" -r

complete -c jfacts -n "__fish_seen_subcommand_from extract archive" -l output -s o -d "Output file" -r
complete -c jfacts -n "__fish_seen_subcommand_from extract archive" -l append -d "Append to the output file"
complete -c jfacts -n "__fish_seen_subcommand_from extract archive" -l no-generics -d "Skip generics"
complete -c jfacts -n "__fish_seen_subcommand_from extract" -l no-statements -d "Skip statements"
complete -c jfacts -n "__fish_seen_subcommand_from extract" -l no-expressions -d "Skip expression kinds"
complete -c jfacts -n "__fish_seen_subcommand_from extract" -l no-project -d "Skip project entities"
complete -c jfacts -n "__fish_seen_subcommand_from extract" -l explore-archives -d "Expand compiled-only declarations"
complete -c jfacts -n "__fish_seen_subcommand_from extract" -l metrics-addr -d "Prometheus metrics address" -r
complete -c jfacts -n "__fish_seen_subcommand_from extract" -l archive -d "Extra jar to extract" -r

complete -c jfacts -n "__fish_seen_subcommand_from status" -l json -d "Output as JSON"
complete -c jfacts -n "__fish_seen_subcommand_from reset" -l yes -d "Confirm the reset"

complete -c jfacts -n "__fish_seen_subcommand_from completion" -f -a "bash zsh fish"
`

// completionScript returns the script for shell.
func completionScript(shell string) (string, bool) {
	switch shell {
	case "bash":
		return bashCompletionTemplate, true
	case "zsh":
		return zshCompletionTemplate, true
	case "fish":
		return fishCompletionTemplate, true
	}
	return "", false
}

// runCompletion executes the 'completion' CLI command.
//
// Examples:
//
//	source <(jfacts completion bash)
//	jfacts completion zsh > "${fpath[1]}/_jfacts"
//	jfacts completion fish | source
func runCompletion(args []string, globals GlobalFlags) {
	fs := flag.NewFlagSet("completion", flag.ExitOnError)

	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, `Usage: jfacts completion <shell>

Generates a completion script for bash, zsh or fish.

Examples:
  source <(jfacts completion bash)
  jfacts completion zsh > "${fpath[1]}/_jfacts"
  jfacts completion fish > ~/.config/fish/completions/jfacts.fish

`)
	}

	if err := fs.Parse(args); err != nil {
		os.Exit(errors.ExitInput)
	}
	if err := writeCompletion(os.Stdout, fs.Args()); err != nil {
		fatal(err, globals)
	}
}

func writeCompletion(w io.Writer, args []string) error {
	if len(args) != 1 {
		return errors.NewInputError(
			"Invalid arguments",
			"The completion command requires exactly one argument: the shell name",
			"Run 'jfacts completion bash', 'jfacts completion zsh', or 'jfacts completion fish'",
		)
	}
	script, ok := completionScript(args[0])
	if !ok {
		return errors.NewInputError(
			"Unsupported shell",
			fmt.Sprintf("Shell '%s' is not supported. Valid options: bash, zsh, fish", args[0]),
			"Run 'jfacts completion bash', 'jfacts completion zsh', or 'jfacts completion fish'",
		)
	}
	_, err := io.WriteString(w, script)
	return err
}
