package a

import "os/exec"

type wrapper struct {
	cmd *exec.Cmd
}

func direct() {
	cmd := exec.Command("true")
	_ = cmd.Start()             // want `do not call Start\(\) directly on \*exec.Cmd, use execsupport.Start instead`
	_ = cmd.Run()               // want `do not call Run\(\) directly on \*exec.Cmd, use execsupport.Run instead`
	_, _ = cmd.Output()         // want `do not call Output\(\) directly on \*exec.Cmd, use execsupport.Run instead`
	_, _ = cmd.CombinedOutput() // want `do not call CombinedOutput\(\) directly on \*exec.Cmd, use execsupport.Run instead`
	_ = cmd.Wait()
}

func field(w *wrapper) {
	_ = w.cmd.Start() // want `do not call Start\(\) directly on \*exec.Cmd, use execsupport.Start instead`
}

type runner struct{}

func (runner) Run() error { return nil }

func unrelated() {
	_ = runner{}.Run()
}
