package overlay

import (
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/seckatie/marktube/internal/core"
)

// BindingName is the page-global function the injected button calls with a
// JSON command.
const BindingName = "marktubeCommand"

const (
	buttonClass    = "marktube-bookmark-btn"
	notificationID = "marktube-notification"
	bookmarkIcon   = "M17 3H7c-1.1 0-2 .9-2 2v16l7-3 7 3V5c0-1.1-.9-2-2-2z"
)

// jsString quotes s as a JavaScript string literal.
func jsString(s string) string {
	b, _ := json.Marshal(s)
	return string(b)
}

func controlsReadyScript() string {
	return fmt.Sprintf(`!!document.querySelector(%s) && !!document.querySelector(%s)`,
		jsString(core.ControlBarSelector), jsString(core.PlayerSelector))
}

func installButtonScript() string {
	return fmt.Sprintf(`(() => {
  document.querySelectorAll("."+%[1]s).forEach(b => b.remove());
  const bar = document.querySelector(%[2]s);
  if (!bar) return false;
  const btn = document.createElement("button");
  btn.className = "ytp-button " + %[1]s;
  btn.title = "Click to bookmark current timestamp";
  btn.style.cssText = "background:transparent;border:none;cursor:pointer;padding:0;margin:0;display:flex;align-items:center;justify-content:center;width:36px;height:36px;";
  const ns = "http://www.w3.org/2000/svg";
  const svg = document.createElementNS(ns, "svg");
  svg.setAttribute("viewBox", "0 0 24 24");
  svg.setAttribute("width", "22");
  svg.setAttribute("height", "22");
  svg.setAttribute("fill", "white");
  const path = document.createElementNS(ns, "path");
  path.setAttribute("d", %[3]s);
  svg.appendChild(path);
  btn.appendChild(svg);
  btn.addEventListener("click", () => window[%[4]s](JSON.stringify({type: "ADD"})));
  bar.appendChild(btn);
  return true;
})()`, jsString(buttonClass), jsString(core.ControlBarSelector), jsString(bookmarkIcon), jsString(BindingName))
}

func currentTimeScript() string {
	return fmt.Sprintf(`(() => {
  const v = document.querySelector(%s);
  if (!v) throw new Error("player not found");
  return v.currentTime;
})()`, jsString(core.PlayerSelector))
}

func seekScript(seconds float64) string {
	return fmt.Sprintf(`(() => {
  const v = document.querySelector(%s);
  if (!v) return false;
  v.currentTime = %s;
  return true;
})()`, jsString(core.PlayerSelector), strconv.FormatFloat(seconds, 'g', -1, 64))
}

// notifyScript shows message in a fixed box that fades in, stays for d and
// fades out. An existing box is removed at once.
func notifyScript(message string, d time.Duration) string {
	anim := core.NotificationAnimation.Milliseconds()
	return fmt.Sprintf(`(() => {
  const id = %[1]s;
  const old = document.getElementById(id);
  if (old) old.remove();
  if (!document.getElementById(id + "-style")) {
    const style = document.createElement("style");
    style.id = id + "-style";
    style.textContent = "@keyframes marktubeIn{from{opacity:0;transform:translateY(-20px)}to{opacity:1;transform:translateY(0)}}" +
      "@keyframes marktubeOut{from{opacity:1;transform:translateY(0)}to{opacity:0;transform:translateY(-20px)}}";
    document.head.appendChild(style);
  }
  const box = document.createElement("div");
  box.id = id;
  box.style.cssText = "position:fixed;top:80px;right:20px;background-color:rgba(0,0,0,0.7);color:white;padding:12px 20px;border-radius:4px;z-index:9999;font-family:'Roboto',Arial,sans-serif;font-size:14px;display:flex;align-items:center;animation:marktubeIn %[3]dms ease-out;";
  const mark = document.createElement("span");
  mark.textContent = "✓";
  mark.style.cssText = "margin-right:8px;color:#4CAF50;font-size:16px;font-weight:bold;";
  box.appendChild(mark);
  box.appendChild(document.createTextNode(%[2]s));
  document.body.appendChild(box);
  setTimeout(() => {
    box.style.animation = "marktubeOut %[3]dms ease-out";
    setTimeout(() => box.remove(), %[3]d);
  }, %[4]d);
  return true;
})()`, jsString(notificationID), jsString(message), anim, d.Milliseconds())
}
