// Copyright (c) 2025 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package command

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/urfave/cli/v3"

	"github.com/ZENFALLACY/weather-harvester/internal/meta"
)

const bashCompletionScript = `# bash completion for weather-harvester
# Fallback if bash-completion is not installed
if ! declare -F _get_comp_words_by_ref >/dev/null 2>&1; then
  _get_comp_words_by_ref() {
    cur=${COMP_WORDS[COMP_CWORD]}
    prev=${COMP_WORDS[COMP_CWORD-1]}
  }
fi

_weather_harvester()
{
    local cur prev cmd
    COMPREPLY=()
    _get_comp_words_by_ref -n : cur prev

    local global="--config --profile --log-level --log-file --verbose -v --help"

    if [[ ${COMP_CWORD} -eq 1 ]]; then
        COMPREPLY=( $(compgen -W "fetch monitor list-plugins test-config cache completion --help --version" -- "$cur") )
        return 0
    fi

    cmd=${COMP_WORDS[1]}

    case "$prev" in
        --output|-o)
            COMPREPLY=( $(compgen -W "summary json yaml" -- "$cur") )
            return 0
            ;;
        --log-level)
            COMPREPLY=( $(compgen -W "debug info warn error fatal" -- "$cur") )
            return 0
            ;;
        --config|--log-file)
            COMPREPLY=( $(compgen -f -- "$cur") )
            return 0
            ;;
    esac

    case "$cmd" in
        fetch)
            local opts="$global --location -l --no-cache --output -o"
            ;;
        monitor)
            local opts="$global --locations -l --interval -i --parallel -p --once --attrs -a --filter -f --sort -s --titles --no-titles --output -o"
            ;;
        list-plugins)
            local opts="$global --titles --no-titles --output -o"
            ;;
        test-config)
            local opts="$global --show"
            ;;
        cache)
            if [[ ${COMP_CWORD} -eq 2 ]]; then
                COMPREPLY=( $(compgen -W "stats clear cleanup" -- "$cur") )
                return 0
            fi
            local opts="$global --output -o"
            ;;
        completion)
            COMPREPLY=( $(compgen -W "bash zsh" -- "$cur") )
            return 0
            ;;
        *)
            local opts="$global"
            ;;
    esac

    COMPREPLY=( $(compgen -W "$opts" -- "$cur") )
    return 0
}

complete -F _weather_harvester weather-harvester
`

const zshCompletionScript = `#compdef weather-harvester

_weather_harvester() {
  local -a cmds
  cmds=(
    'fetch:fetch current weather for one location'
    'monitor:poll locations on an interval and raise alerts'
    'list-plugins:list the registered payload plugins'
    'test-config:load and validate the configuration'
    'cache:inspect and maintain the response cache'
    'completion:generate shell completion script'
  )

  local -a global
  global=(
    '--config[configuration file]:file:_files'
    '--profile[configuration profile]:profile'
    '--log-level[log level]:level:(debug info warn error fatal)'
    '--log-file[JSON log file]:file:_files'
    '(-v --verbose)'{-v,--verbose}'[enable debug logging]'
  )

  local output='(-o --output)'{-o,--output}'[output format]:format:(summary json yaml)'

  if (( CURRENT == 2 )); then
    _describe -t commands 'weather-harvester commands' cmds
    return
  fi

  local curcontext="$curcontext" state line
  case $words[2] in
    fetch)
      _arguments -C \
        $global \
        '(-l --location)'{-l,--location}'[city name or lat,lon]:location' \
        '--no-cache[bypass the cache]' \
        $output
      ;;
    monitor)
      _arguments -C \
        $global \
        '*'{-l,--locations}'[location to monitor]:location' \
        '(-i --interval)'{-i,--interval}'[time between iterations]:duration' \
        '(-p --parallel)'{-p,--parallel}'[fetch concurrently]' \
        '--once[run a single iteration]' \
        '(-a --attrs)'{-a,--attrs}'[table columns]:attrs' \
        '(-f --filter)'{-f,--filter}'[filters to apply]:filters' \
        '(-s --sort)'{-s,--sort}'[sort columns]:columns' \
        '--titles[show column titles]' \
        '--no-titles[hide column titles]' \
        $output \
        '*:location'
      ;;
    list-plugins)
      _arguments -C $global '--titles[show column titles]' '--no-titles[hide column titles]' $output
      ;;
    test-config)
      _arguments -C $global '--show[print effective values]'
      ;;
    cache)
      _arguments -C $global '1: :(stats clear cleanup)' $output
      ;;
    completion)
      _arguments '1: :((bash zsh))'
      ;;
    *)
      _arguments -C $global
      ;;
  esac
}

# If this file is sourced directly (not autoloaded via fpath), ensure compsys is initialized and register the completion
if ! typeset -f compdef >/dev/null 2>&1; then
  autoload -Uz compinit && compinit -i
fi
compdef _weather_harvester weather-harvester
`

func completionCommandAction(m *meta.Meta) cli.ActionFunc {
	return func(_ context.Context, cmd *cli.Command) error {
		shell := cmd.Args().First()
		if shell == "" {
			// Try to detect from SHELL
			sh := os.Getenv("SHELL")
			switch {
			case strings.HasSuffix(sh, "zsh"):
				shell = "zsh"
			case strings.HasSuffix(sh, "bash"):
				shell = "bash"
			}
		}

		switch shell {
		case "bash":
			fmt.Fprint(m.Stdout, bashCompletionScript)
		case "zsh":
			fmt.Fprint(m.Stdout, zshCompletionScript)
		default:
			return fmt.Errorf("%w: usage: weather-harvester completion [bash|zsh]", ErrUsage)
		}
		return nil
	}
}

// CompletionCommandBuilder builds the completion subcommand.
func CompletionCommandBuilder(_ *cli.Command, m *meta.Meta) *cli.Command {
	return &cli.Command{
		Name:      "completion",
		Usage:     "generate shell completion script",
		UsageText: "weather-harvester completion [bash|zsh]",
		Metadata:  map[string]any{metaSkipSetup: true},
		Action:    completionCommandAction(m),
	}
}
