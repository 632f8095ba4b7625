package action

import (
	"fmt"
	"os/exec"
	"runtime"
	"strings"
	"time"

	"github.com/atotto/clipboard"

	"github.com/forgeai-dev/ForgeAI/internal/model"
)

// Desktop automation sub-dispatcher. Params carry their own sub-protocol:
// {"op": ..., "title": ..., "text": ..., "keys": ..., "x": ..., "y": ...,
// "delay_ms": ..., "wait_ms": ...}. The optional delay_ms runs before the
// sub-action, giving a previously focused window time to settle.
//
// Window-title matching is substring-based and reports a distinguishable
// not-found payload instead of an error, so the caller can retry with
// adjusted targeting.

const (
	maxDesktopDelay = 10 * time.Second
	maxDesktopWait  = 30 * time.Second
)

func (d *Dispatcher) desktop(req model.ActionRequest) model.ActionResult {
	op := paramString(req.Params, "op")
	if op == "" {
		return missingField("op")
	}

	if delay := paramDuration(req.Params, "delay_ms", maxDesktopDelay); delay > 0 {
		time.Sleep(delay)
	}

	switch op {
	case "list_windows":
		return d.listWindows()
	case "focus_window":
		return d.focusWindow(paramString(req.Params, "title"))
	case "send_keys":
		return d.sendKeys(paramString(req.Params, "keys"))
	case "type_text":
		return d.typeText(paramString(req.Params, "text"))
	case "click":
		return d.click(paramInt(req.Params, "x"), paramInt(req.Params, "y"))
	case "screenshot":
		return d.screenshot(paramString(req.Params, "title"))
	case "ocr":
		return d.ocrScreen()
	case "ui_tree":
		return d.uiTree(paramString(req.Params, "title"))
	case "clipboard_read":
		return d.clipboardRead()
	case "wait":
		wait := paramDuration(req.Params, "wait_ms", maxDesktopWait)
		time.Sleep(wait)
		return okResult(fmt.Sprintf("Waited %s", wait), model.SafeVerdict())
	default:
		// Closed world, same as the outer dispatch table.
		return model.ActionResult{
			Success: false,
			Output:  "Unknown desktop op: " + op,
			Safety:  model.Blocked("Unknown action"),
		}
	}
}

func (d *Dispatcher) listWindows() model.ActionResult {
	out, err := runScript(`Get-Process | Where-Object { $_.MainWindowTitle } | ForEach-Object { "{0,-8} {1}" -f $_.Id, $_.MainWindowTitle }`)
	if err != nil {
		return errResult(fmt.Sprintf("Failed to enumerate windows: %v", err), model.SafeVerdict())
	}
	if strings.TrimSpace(out) == "" {
		return okResult("(no visible windows)", model.SafeVerdict())
	}
	return okResult(truncate(out, maxShellOutput), model.SafeVerdict())
}

func (d *Dispatcher) focusWindow(title string) model.ActionResult {
	if title == "" {
		return missingField("title")
	}
	verdict := model.Allowed(model.RiskMedium, "Focusing window by title")
	script := fmt.Sprintf(`
$p = Get-Process | Where-Object { $_.MainWindowTitle -like "*%s*" } | Select-Object -First 1
if ($p) {
  (New-Object -ComObject WScript.Shell).AppActivate($p.Id) | Out-Null
  Write-Output ("FOCUSED " + $p.MainWindowTitle)
} else {
  Write-Output "NOTFOUND"
}`, psEscape(title))

	out, err := runScript(script)
	if err != nil {
		return errResult(fmt.Sprintf("Failed to focus window: %v", err), verdict)
	}
	if strings.HasPrefix(strings.TrimSpace(out), "NOTFOUND") {
		return okResult(fmt.Sprintf("No window matching %q", title), verdict)
	}
	return okResult(strings.TrimSpace(out), verdict)
}

func (d *Dispatcher) sendKeys(keys string) model.ActionResult {
	if keys == "" {
		return missingField("keys")
	}
	verdict := model.Allowed(model.RiskMedium, "Injecting key strokes")
	script := fmt.Sprintf(`Add-Type -AssemblyName System.Windows.Forms; [System.Windows.Forms.SendKeys]::SendWait("%s")`, psEscape(keys))
	if _, err := runScript(script); err != nil {
		return errResult(fmt.Sprintf("Failed to send keys: %v", err), verdict)
	}
	return okResult("Sent keys: "+keys, verdict)
}

func (d *Dispatcher) typeText(text string) model.ActionResult {
	if text == "" {
		return missingField("text")
	}
	verdict := model.Allowed(model.RiskMedium, "Typing text into the focused window")
	// SendKeys treats +^%~(){}[] as control characters; escape them so the
	// text arrives literally. Braces go first so the wrappers survive.
	escaped := strings.ReplaceAll(strings.ReplaceAll(text, "{", "{{}"), "}", "{}}")
	for _, ch := range []string{"+", "^", "%", "~", "(", ")", "[", "]"} {
		escaped = strings.ReplaceAll(escaped, ch, "{"+ch+"}")
	}
	script := fmt.Sprintf(`Add-Type -AssemblyName System.Windows.Forms; [System.Windows.Forms.SendKeys]::SendWait("%s")`, psEscape(escaped))
	if _, err := runScript(script); err != nil {
		return errResult(fmt.Sprintf("Failed to type text: %v", err), verdict)
	}
	return okResult(fmt.Sprintf("Typed %d characters", len(text)), verdict)
}

func (d *Dispatcher) click(x, y int) model.ActionResult {
	verdict := model.Allowed(model.RiskMedium, "Synthesizing mouse click")
	script := fmt.Sprintf(`
Add-Type -AssemblyName System.Windows.Forms
[System.Windows.Forms.Cursor]::Position = New-Object System.Drawing.Point(%d, %d)
Add-Type -MemberDefinition '[DllImport("user32.dll")] public static extern void mouse_event(uint f, uint x, uint y, uint d, int e);' -Name U32 -Namespace W
[W.U32]::mouse_event(0x0002, 0, 0, 0, 0)
[W.U32]::mouse_event(0x0004, 0, 0, 0, 0)`, x, y)
	if _, err := runScript(script); err != nil {
		return errResult(fmt.Sprintf("Failed to click: %v", err), verdict)
	}
	return okResult(fmt.Sprintf("Clicked at (%d, %d)", x, y), verdict)
}

// screenshot captures the whole screen, or a title-matched window when
// title is set. Output is a base64 PNG so it can travel inside a JSON
// result frame.
func (d *Dispatcher) screenshot(title string) model.ActionResult {
	verdict := model.Allowed(model.RiskLow, "Capturing screenshot")
	script := `
Add-Type -AssemblyName System.Windows.Forms,System.Drawing
$bounds = [System.Windows.Forms.Screen]::PrimaryScreen.Bounds
$bmp = New-Object System.Drawing.Bitmap($bounds.Width, $bounds.Height)
$g = [System.Drawing.Graphics]::FromImage($bmp)
$g.CopyFromScreen($bounds.Location, [System.Drawing.Point]::Empty, $bounds.Size)
$ms = New-Object System.IO.MemoryStream
$bmp.Save($ms, [System.Drawing.Imaging.ImageFormat]::Png)
[Convert]::ToBase64String($ms.ToArray())`
	if title != "" {
		script = fmt.Sprintf(`
$p = Get-Process | Where-Object { $_.MainWindowTitle -like "*%s*" } | Select-Object -First 1
if (-not $p) { Write-Output "NOTFOUND"; exit 0 }
(New-Object -ComObject WScript.Shell).AppActivate($p.Id) | Out-Null
Start-Sleep -Milliseconds 250
%s`, psEscape(title), script)
	}

	out, err := runScript(script)
	if err != nil {
		return errResult(fmt.Sprintf("Failed to capture screenshot: %v", err), verdict)
	}
	trimmed := strings.TrimSpace(out)
	if strings.HasPrefix(trimmed, "NOTFOUND") {
		return okResult(fmt.Sprintf("No window matching %q", title), verdict)
	}
	return okResult("data:image/png;base64,"+trimmed, verdict)
}

func (d *Dispatcher) ocrScreen() model.ActionResult {
	verdict := model.Allowed(model.RiskLow, "OCR over a fresh screenshot")
	// Windows.Media.Ocr over a fresh capture; the WinRT await dance is the
	// standard AsTask bridge.
	script := `
Add-Type -AssemblyName System.Windows.Forms,System.Drawing,System.Runtime.WindowsRuntime
$bounds = [System.Windows.Forms.Screen]::PrimaryScreen.Bounds
$bmp = New-Object System.Drawing.Bitmap($bounds.Width, $bounds.Height)
$g = [System.Drawing.Graphics]::FromImage($bmp)
$g.CopyFromScreen($bounds.Location, [System.Drawing.Point]::Empty, $bounds.Size)
$tmp = [System.IO.Path]::GetTempFileName() + ".png"
$bmp.Save($tmp, [System.Drawing.Imaging.ImageFormat]::Png)
$asTask = ([System.WindowsRuntimeSystemExtensions].GetMethods() | Where-Object { $_.Name -eq 'AsTask' -and $_.GetParameters().Count -eq 1 -and $_.GetParameters()[0].ParameterType.Name -eq 'IAsyncOperation~1' })[0]
function Await($op, $t) { $task = $asTask.MakeGenericMethod($t).Invoke($null, @($op)); $task.Wait(); $task.Result }
$file = Await ([Windows.Storage.StorageFile]::GetFileFromPathAsync($tmp)) ([Windows.Storage.StorageFile])
$stream = Await ($file.OpenAsync([Windows.Storage.FileAccessMode]::Read)) ([Windows.Storage.Streams.IRandomAccessStream])
$decoder = Await ([Windows.Graphics.Imaging.BitmapDecoder]::CreateAsync($stream)) ([Windows.Graphics.Imaging.BitmapDecoder])
$softwareBmp = Await ($decoder.GetSoftwareBitmapAsync()) ([Windows.Graphics.Imaging.SoftwareBitmap])
$engine = [Windows.Media.Ocr.OcrEngine]::TryCreateFromUserProfileLanguages()
$result = Await ($engine.RecognizeAsync($softwareBmp)) ([Windows.Media.Ocr.OcrResult])
Remove-Item $tmp -ErrorAction SilentlyContinue
$result.Text`
	out, err := runScript(script)
	if err != nil {
		return errResult(fmt.Sprintf("Failed to OCR screen: %v", err), verdict)
	}
	if strings.TrimSpace(out) == "" {
		return okResult("(no text recognized)", verdict)
	}
	return okResult(truncate(strings.TrimSpace(out), maxShellOutput), verdict)
}

func (d *Dispatcher) uiTree(title string) model.ActionResult {
	if title == "" {
		return missingField("title")
	}
	verdict := model.Allowed(model.RiskLow, "Extracting UI text tree")
	script := fmt.Sprintf(`
Add-Type -AssemblyName UIAutomationClient,UIAutomationTypes
$root = [System.Windows.Automation.AutomationElement]::RootElement
$cond = New-Object System.Windows.Automation.PropertyCondition([System.Windows.Automation.AutomationElement]::ControlTypeProperty, [System.Windows.Automation.ControlType]::Window)
$win = $root.FindAll([System.Windows.Automation.TreeScope]::Children, $cond) | Where-Object { $_.Current.Name -like "*%s*" } | Select-Object -First 1
if (-not $win) { Write-Output "NOTFOUND"; exit 0 }
$all = $win.FindAll([System.Windows.Automation.TreeScope]::Descendants, [System.Windows.Automation.Condition]::TrueCondition)
foreach ($el in $all) { if ($el.Current.Name) { Write-Output ($el.Current.ControlType.ProgrammaticName + " " + $el.Current.Name) } }`, psEscape(title))

	out, err := runScript(script)
	if err != nil {
		return errResult(fmt.Sprintf("Failed to read UI tree: %v", err), verdict)
	}
	trimmed := strings.TrimSpace(out)
	if strings.HasPrefix(trimmed, "NOTFOUND") {
		return okResult(fmt.Sprintf("No window matching %q", title), verdict)
	}
	return okResult(truncate(trimmed, maxShellOutput), verdict)
}

func (d *Dispatcher) clipboardRead() model.ActionResult {
	text, err := clipboard.ReadAll()
	if err != nil {
		return errResult(fmt.Sprintf("Failed to read clipboard: %v", err), model.SafeVerdict())
	}
	if text == "" {
		return okResult("(clipboard is empty)", model.SafeVerdict())
	}
	return okResult(truncate(text, maxShellOutput), model.SafeVerdict())
}

// runScript executes a PowerShell snippet. Desktop automation is a
// Windows-only surface; elsewhere the caller gets an execution error,
// never a panic.
func runScript(script string) (string, error) {
	if runtime.GOOS != "windows" {
		return "", fmt.Errorf("desktop automation is only supported on Windows")
	}
	out, err := exec.Command("powershell", "-NoProfile", "-NonInteractive", "-Command", script).CombinedOutput()
	if err != nil {
		return "", fmt.Errorf("%v: %s", err, strings.TrimSpace(string(out)))
	}
	return string(out), nil
}

// psEscape neutralizes string delimiters before interpolation into a
// PowerShell double-quoted string.
func psEscape(s string) string {
	s = strings.ReplaceAll(s, "`", "``")
	s = strings.ReplaceAll(s, `"`, "`\"")
	s = strings.ReplaceAll(s, "$", "`$")
	return s
}

func paramString(params map[string]any, key string) string {
	s, _ := params[key].(string)
	return s
}

func paramInt(params map[string]any, key string) int {
	switch n := params[key].(type) {
	case int:
		return n
	case float64:
		return int(n)
	default:
		return 0
	}
}

func paramDuration(params map[string]any, key string, max time.Duration) time.Duration {
	d := time.Duration(paramInt(params, key)) * time.Millisecond
	if d < 0 {
		return 0
	}
	if d > max {
		return max
	}
	return d
}
