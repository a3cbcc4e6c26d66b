package builtins

import (
	"fmt"
	"log"

	"lingoplayer/internal/datum"
	"lingoplayer/internal/vm"
)

// RegisterNavigation installs go/play/stop/updateStage/puppetTempo
// (§4.2), all delegating to the VM's PlayerController so this package
// never imports the score player directly.
func RegisterNavigation(v *vm.VM) {
	v.RegisterBuiltin("go", navGo)
	v.RegisterBuiltin("play", navPlay)
	v.RegisterBuiltin("stop", navStop)
	v.RegisterBuiltin("updateStage", navUpdateStage)
	v.RegisterBuiltin("puppetTempo", navPuppetTempo)
}

func requirePlayer(v *vm.VM) error {
	if v.Player == nil {
		return fmt.Errorf("no score player attached to this VM")
	}
	return nil
}

func navGo(v *vm.VM, args []datum.Datum) (datum.Datum, error) {
	if err := requirePlayer(v); err != nil {
		return datum.Void, err
	}
	a := arg(args, 0)
	if a.Kind == datum.KindString || a.Kind == datum.KindSymbol {
		if err := v.Player.GoToLabel(a.AsString()); err != nil {
			log.Printf("warning: %v", err)
		}
		return datum.Void, nil
	}
	v.Player.GoToFrame(a.AsInt())
	return datum.Void, nil
}

func navPlay(v *vm.VM, args []datum.Datum) (datum.Datum, error) {
	if err := requirePlayer(v); err != nil {
		return datum.Void, err
	}
	if len(args) > 0 {
		if _, err := navGo(v, args); err != nil {
			return datum.Void, err
		}
	}
	v.Player.Play()
	return datum.Void, nil
}

func navStop(v *vm.VM, args []datum.Datum) (datum.Datum, error) {
	if err := requirePlayer(v); err != nil {
		return datum.Void, err
	}
	v.Player.Stop()
	return datum.Void, nil
}

func navUpdateStage(v *vm.VM, args []datum.Datum) (datum.Datum, error) {
	if err := requirePlayer(v); err != nil {
		return datum.Void, err
	}
	v.Player.UpdateStage()
	return datum.Void, nil
}

func navPuppetTempo(v *vm.VM, args []datum.Datum) (datum.Datum, error) {
	if err := requirePlayer(v); err != nil {
		return datum.Void, err
	}
	v.Player.PuppetTempo(arg(args, 0).AsInt())
	return datum.Void, nil
}
