// Command animview is a terminal viewer for controller definitions. It drives one
// controller from a definition file and shows its active state, parameters and pose.
package main

import (
	"flag"
	"fmt"
	"log"
	"math"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/gdamore/tcell/v2"

	"github.com/Carmen-Shannon/oxy-anim/common"
	"github.com/Carmen-Shannon/oxy-anim/engine"
	"github.com/Carmen-Shannon/oxy-anim/engine/animator"
	"github.com/Carmen-Shannon/oxy-anim/engine/config"
	"github.com/Carmen-Shannon/oxy-anim/engine/game_object"
	"github.com/Carmen-Shannon/oxy-anim/engine/loader"
	"github.com/Carmen-Shannon/oxy-anim/engine/parameter"
	"github.com/Carmen-Shannon/oxy-anim/engine/scene"
	"github.com/Carmen-Shannon/oxy-anim/engine/state_machine"
)

const (
	floatStep      = 0.1
	speedStep      = 0.25
	playCrossFade  = 0.25
	defaultDefPath = "examples/assets/locomotion.yaml"
)

type reloadResult struct {
	path string
	m    *state_machine.ControllerModel
	err  error
}

type viewer struct {
	screen        tcell.Screen
	width, height int

	cfg     *config.Config
	ldr     loader.Loader
	defPath string
	eng     engine.Engine
	sc      scene.Scene
	object  game_object.GameObject
	watcher *loader.Watcher
	reloads chan reloadResult

	selected int
	status   string
}

func newViewer(cfg *config.Config, defPath string) (*viewer, error) {
	ldr := loader.NewLoader(loader.BackendTypeYAML)
	m, err := ldr.Load(defPath)
	if err != nil {
		return nil, err
	}

	v := &viewer{
		cfg:     cfg,
		ldr:     ldr,
		defPath: defPath,
		reloads: make(chan reloadResult, 4),
		status:  fmt.Sprintf("loaded %s", defPath),
	}

	v.object = game_object.NewGameObject(
		game_object.WithName(m.Name),
		game_object.WithBones(boneNames(m, cfg.RootBone)...),
		game_object.WithAnimator(v.newController(m)),
	)
	v.sc = scene.NewScene("animview",
		scene.WithActive(true),
		scene.WithUpdateWorkers(cfg.Workers),
		scene.WithTimeScale(cfg.TimeScale),
		scene.WithObjects(v.object),
	)
	v.eng = engine.NewEngine(engine.WithConfig(cfg), engine.WithScene(0, v.sc))

	if cfg.Watch {
		dirs := append(cfg.WatchDirs(), filepath.Dir(defPath))
		w, err := loader.NewWatcher(unique(dirs)...)
		if err != nil {
			log.Printf("[Loader] hot reload disabled: %v", err)
		} else {
			v.watcher = w
			go w.Serve(ldr, func(path string, m *state_machine.ControllerModel, err error) {
				v.reloads <- reloadResult{path, m, err}
			})
		}
	}

	screen, err := tcell.NewScreen()
	if err != nil {
		v.release()
		return nil, err
	}
	if err := screen.Init(); err != nil {
		v.release()
		return nil, err
	}
	v.screen = screen
	v.width, v.height = screen.Size()
	return v, nil
}

func (v *viewer) newController(m *state_machine.ControllerModel) animator.AnimatorController {
	return animator.NewAnimatorController(m,
		animator.WithRootMotion(v.cfg.RootMotion),
		animator.WithRootBone(v.cfg.RootBone),
	)
}

// boneNames collects every bone animated by the model's clips, plus the root bone.
func boneNames(m *state_machine.ControllerModel, root string) []string {
	seen := map[string]bool{root: true}
	names := []string{root}
	for _, layer := range m.Layers {
		if layer.StateMachine == nil {
			continue
		}
		for _, s := range layer.StateMachine.States {
			if s.Motion.Clip == nil {
				continue
			}
			for _, ch := range s.Motion.Clip.Channels {
				if !seen[ch.Target] {
					seen[ch.Target] = true
					names = append(names, ch.Target)
				}
			}
		}
	}
	sort.Strings(names[1:])
	return names
}

func (v *viewer) run() {
	ticker := time.NewTicker(v.eng.TickRate())
	defer ticker.Stop()

	eventChan := make(chan tcell.Event, 100)
	go func() {
		for {
			ev := v.screen.PollEvent()
			if ev == nil {
				return
			}
			eventChan <- ev
		}
	}()

	last := time.Now()
	for {
		select {
		case ev := <-eventChan:
			if !v.handleInput(ev) {
				return
			}
		case r := <-v.reloads:
			v.applyReload(r)
		case <-ticker.C:
			now := time.Now()
			v.eng.Step(now.Sub(last).Seconds())
			last = now
			v.draw()
		}
	}
}

func (v *viewer) applyReload(r reloadResult) {
	if r.err != nil {
		v.status = fmt.Sprintf("reload failed: %v", r.err)
		log.Printf("[Loader] %s", v.status)
		return
	}
	if r.path != v.defPath {
		return
	}
	for _, name := range boneNames(r.m, v.cfg.RootBone) {
		if v.object.Bone(name) == nil {
			v.object.AddBone(name, common.IdentityTransform())
		}
	}
	v.object.SetAnimator(v.newController(r.m))
	v.selected = 0
	v.status = fmt.Sprintf("reloaded %s at %s", r.path, time.Now().Format("15:04:05"))
}

func (v *viewer) handleInput(ev tcell.Event) bool {
	a := v.object.Animator()
	params := a.Parameters()

	switch ev := ev.(type) {
	case *tcell.EventKey:
		switch ev.Key() {
		case tcell.KeyEscape, tcell.KeyCtrlC:
			return false
		case tcell.KeyUp:
			if v.selected > 0 {
				v.selected--
			}
		case tcell.KeyDown:
			if v.selected < len(params)-1 {
				v.selected++
			}
		case tcell.KeyLeft:
			v.nudge(a, params, -1)
		case tcell.KeyRight:
			v.nudge(a, params, 1)
		case tcell.KeyEnter:
			v.activate(a, params)
		case tcell.KeyRune:
			switch ev.Rune() {
			case 'q':
				return false
			case ' ':
				v.activate(a, params)
			case 'r':
				a.Reset()
				v.status = "reset"
			case 'm':
				a.SetRootMotion(!a.RootMotion())
				v.status = fmt.Sprintf("root motion %v", a.RootMotion())
			case 'c':
				v.object.SetPosition(0, 0, 0)
			case '[':
				a.SetSpeed(math.Max(0, a.Speed()-speedStep))
			case ']':
				a.SetSpeed(a.Speed() + speedStep)
			case 'n':
				v.playNext(a)
			case 'p':
				v.toggleProfiler()
			}
		}
	case *tcell.EventResize:
		v.width, v.height = v.screen.Size()
		v.screen.Sync()
	}
	return true
}

// nudge changes the selected parameter by dir steps. Bools follow the direction.
func (v *viewer) nudge(a animator.AnimatorController, params []parameter.Parameter, dir float64) {
	if v.selected >= len(params) {
		return
	}
	p := params[v.selected]
	switch p.Kind {
	case parameter.KindFloat:
		a.SetFloatID(p.ID, math.Round((p.Float+dir*floatStep)*100)/100)
	case parameter.KindInt:
		a.SetIntegerID(p.ID, p.Int+int64(dir))
	case parameter.KindBool:
		a.SetBoolID(p.ID, dir > 0)
	}
}

// activate toggles a bool or fires a trigger.
func (v *viewer) activate(a animator.AnimatorController, params []parameter.Parameter) {
	if v.selected >= len(params) {
		return
	}
	p := params[v.selected]
	switch p.Kind {
	case parameter.KindBool:
		a.SetBoolID(p.ID, !p.Bool)
	case parameter.KindTrigger:
		a.SetTriggerID(p.ID)
	}
}

// playNext cross-fades to the state after the active one, in declaration order.
func (v *viewer) playNext(a animator.AnimatorController) {
	sm := a.Model().BaseStateMachine()
	if sm == nil || len(sm.States) == 0 {
		return
	}
	next := sm.States[(sm.IndexOf(a.ActiveState())+1)%len(sm.States)]
	a.Play(next.Name, 0, 0, playCrossFade)
	v.status = fmt.Sprintf("play %s", next.Name)
}

func (v *viewer) toggleProfiler() {
	if v.cfg.Profiling {
		v.eng.DisableProfiler()
	} else {
		v.eng.EnableProfiler()
	}
	v.cfg.Profiling = !v.cfg.Profiling
}

func (v *viewer) draw() {
	v.screen.Clear()

	a := v.object.Animator()
	title := tcell.StyleDefault.Foreground(tcell.ColorYellow).Bold(true)
	label := tcell.StyleDefault.Foreground(tcell.ColorGray)
	normal := tcell.StyleDefault
	highlight := tcell.StyleDefault.Reverse(true)

	y := 0
	v.drawText(0, y, title, fmt.Sprintf("animview: %s", a.Model().Name))
	y += 2

	state := "-"
	progress := 0.0
	if info, ok := a.ActiveStateInfo(); ok {
		state = info.Name
		progress = info.NormalizedTime - math.Floor(info.NormalizedTime)
		if info.NormalizedTime >= 1 && progress == 0 {
			progress = 1
		}
	}
	v.drawText(0, y, label, "state")
	v.drawText(14, y, normal, fmt.Sprintf("%-12s %s", state, bar(progress, 20)))
	y++
	v.drawText(0, y, label, "blending")
	v.drawText(14, y, normal, fmt.Sprintf("%v (%d active, %d transitions)", a.IsInTransition(), a.ActiveStateCount(), a.TransitionCount()))
	y++
	v.drawText(0, y, label, "speed")
	v.drawText(14, y, normal, fmt.Sprintf("%.2f  root motion %v  time scale %.2f", a.Speed(), a.RootMotion(), v.sc.TimeScale()))
	y++
	pos := v.object.Position()
	v.drawText(0, y, label, "position")
	v.drawText(14, y, normal, fmt.Sprintf("(%6.2f, %6.2f, %6.2f)  heading %6.1f°", pos[0], pos[1], pos[2], v.object.Heading()))
	y += 2

	v.drawText(0, y, title, "parameters")
	y++
	for i, p := range a.Parameters() {
		style := normal
		if i == v.selected {
			style = highlight
		}
		v.drawText(2, y, style, fmt.Sprintf("%-14s %-8s %s", p.Name, p.Kind, paramValue(p)))
		y++
	}
	y++

	v.drawText(0, y, title, "bones")
	y++
	for _, name := range v.object.BoneNames() {
		b := v.object.Bone(name)
		if b == nil {
			continue
		}
		angle := 2 * math.Acos(math.Min(1, math.Abs(b.Rotation.W))) * 180 / math.Pi
		v.drawText(2, y, normal, fmt.Sprintf("%-10s pos (%6.2f, %6.2f, %6.2f)  rot %6.1f°", name, b.Position[0], b.Position[1], b.Position[2], angle))
		y++
	}
	y++

	if v.cfg.Profiling {
		r := v.eng.Profiler().Last()
		v.drawText(0, y, label, fmt.Sprintf("TPS %.1f | %d controllers | %.2f transitions/s | heap %.2f MB", r.TPS, r.Controllers, r.TransitionRate, r.HeapMB))
		y++
	}

	v.drawText(0, v.height-2, label, v.status)
	v.drawText(0, v.height-1, label, "↑↓ select  ←→ adjust  space fire/toggle  n next  r reset  m root motion  c recenter  [ ] speed  p profiler  q quit")
	v.screen.Show()
}

func (v *viewer) drawText(x, y int, style tcell.Style, text string) {
	if y < 0 || y >= v.height {
		return
	}
	for _, r := range text {
		if x >= v.width {
			return
		}
		v.screen.SetContent(x, y, r, nil, style)
		x++
	}
}

func paramValue(p parameter.Parameter) string {
	switch p.Kind {
	case parameter.KindFloat:
		return fmt.Sprintf("%.2f", p.Float)
	case parameter.KindInt:
		return fmt.Sprintf("%d", p.Int)
	default:
		return fmt.Sprintf("%v", p.Bool)
	}
}

func bar(fraction float64, width int) string {
	filled := int(math.Round(fraction * float64(width)))
	filled = max(0, min(width, filled))
	out := make([]rune, width)
	for i := range out {
		if i < filled {
			out[i] = '█'
		} else {
			out[i] = '·'
		}
	}
	return string(out)
}

func (v *viewer) release() {
	if v.watcher != nil {
		_ = v.watcher.Close()
	}
	v.eng.Quit()
	v.sc.Release()
}

func (v *viewer) cleanup() {
	v.release()
	v.screen.Fini()
}

func main() {
	configPath := flag.String("config", "", "engine config file (config.yaml)")
	defPath := flag.String("def", "", "controller definition to view")
	logPath := flag.String("log", "animview.log", "log file, the terminal is owned by the viewer")
	flag.Parse()

	logFile, err := os.OpenFile(*logPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to open log: %v\n", err)
		os.Exit(1)
	}
	defer logFile.Close()
	log.SetOutput(logFile)

	cfg := config.Default()
	if *configPath != "" {
		if cfg, err = config.Load(*configPath); err != nil {
			fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
			os.Exit(1)
		}
	}

	path := *defPath
	if path == "" && len(cfg.Definitions) > 0 {
		path = cfg.Definitions[0]
	}
	if path == "" {
		path = defaultDefPath
	}

	v, err := newViewer(cfg, path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize: %v\n", err)
		os.Exit(1)
	}
	defer v.cleanup()

	v.run()
}

func unique(values []string) []string {
	seen := make(map[string]bool, len(values))
	out := values[:0]
	for _, s := range values {
		if !seen[s] {
			seen[s] = true
			out = append(out, s)
		}
	}
	return out
}
