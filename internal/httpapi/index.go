package httpapi

const indexHTML = `<!doctype html>
<html lang="en">
<head>
<meta charset="utf-8">
<meta name="viewport" content="width=device-width, initial-scale=1">
<title>Voice Navigation</title>
<link rel="stylesheet" href="https://unpkg.com/leaflet@1.9.4/dist/leaflet.css">
<style>
  body { font-family: system-ui, sans-serif; margin: 0 auto; max-width: 760px; padding: 16px; }
  button { font-size: 16px; padding: 8px 16px; margin-right: 8px; }
  #map { height: 320px; margin: 12px 0; border-radius: 6px; }
  #log { background: #111; color: #9f9; height: 180px; overflow-y: auto; padding: 8px; font-family: monospace; font-size: 13px; white-space: pre-wrap; }
  .row { margin: 8px 0; }
  #camera { display: none; }
  #canvas { width: 100%; max-width: 640px; background: #222; border-radius: 6px; }
</style>
</head>
<body>
<h2>Voice Navigation</h2>
<div class="row">
  <button id="recordBtn">Record Destination</button>
  <button id="startNav" disabled>Start Navigation</button>
  <label><input type="checkbox" id="announceDistance"> announce distance</label>
</div>
<div class="row">Detected: <span id="detected">-</span></div>
<div class="row">Destination: <span id="destcoords">-</span></div>
<div id="map"></div>
<video id="camera" autoplay playsinline muted width="640" height="480"></video>
<canvas id="canvas" width="640" height="480"></canvas>
<div id="log"></div>

<script src="https://unpkg.com/leaflet@1.9.4/dist/leaflet.js"></script>
<script src="https://cdn.jsdelivr.net/npm/@tensorflow/tfjs@4.22.0/dist/tf.min.js"></script>
<script src="https://cdn.jsdelivr.net/npm/@tensorflow-models/coco-ssd@2.2.3/dist/coco-ssd.min.js"></script>
<script>
const recordBtn = document.getElementById("recordBtn");
const startNavBtn = document.getElementById("startNav");
const detectedSpan = document.getElementById("detected");
const destSpan = document.getElementById("destcoords");
const logEl = document.getElementById("log");

function log(msg) {
  logEl.innerText += msg + "\n";
  logEl.scrollTop = logEl.scrollHeight;
}

function speak(text) {
  if (!window.speechSynthesis || !text) return;
  window.speechSynthesis.speak(new SpeechSynthesisUtterance(text));
}

function distanceMeters(lat1, lon1, lat2, lon2) {
  const R = 6371000;
  const dLat = (lat2 - lat1) * Math.PI / 180;
  const dLon = (lon2 - lon1) * Math.PI / 180;
  const a = Math.sin(dLat / 2) ** 2 +
    Math.cos(lat1 * Math.PI / 180) * Math.cos(lat2 * Math.PI / 180) * Math.sin(dLon / 2) ** 2;
  return R * 2 * Math.atan2(Math.sqrt(a), Math.sqrt(1 - a));
}

let origin = null;
let destination = null;
const map = L.map("map").setView([0, 0], 2);
L.tileLayer("https://{s}.tile.openstreetmap.org/{z}/{x}/{y}.png", {
  attribution: "&copy; OpenStreetMap contributors"
}).addTo(map);
let userMarker = null, destMarker = null, routeLine = null;

fetch("/origin").then(r => r.json()).then(o => {
  origin = o;
  map.setView([o.lat, o.lon], 14);
  userMarker = L.marker([o.lat, o.lon], { title: "Start: " + o.label }).addTo(map);
  log("Origin: " + o.label + " (" + o.locality + ")");
});

async function postJSON(url, body) {
  const res = await fetch(url, { method: "POST", headers: { "Content-Type": "application/json" }, body: JSON.stringify(body) });
  return res.json();
}

let mediaRecorder = null;
let chunks = [];

recordBtn.onclick = async () => {
  if (mediaRecorder && mediaRecorder.state === "recording") {
    mediaRecorder.stop();
    return;
  }
  const stream = await navigator.mediaDevices.getUserMedia({ audio: true });
  mediaRecorder = new MediaRecorder(stream);
  chunks = [];
  mediaRecorder.ondataavailable = e => chunks.push(e.data);
  mediaRecorder.onstop = async () => {
    recordBtn.innerText = "Record Destination";
    stream.getTracks().forEach(t => t.stop());
    const form = new FormData();
    form.append("audio_blob", new Blob(chunks, { type: "audio/webm" }), "recording.webm");
    log("Uploading audio for transcription...");
    const tj = await (await fetch("/transcribe", { method: "POST", body: form })).json();
    if (tj.error) { log("Transcription error: " + tj.error); return; }
    detectedSpan.innerText = tj.text;
    log("Transcribed: " + tj.text);

    const gj = await postJSON("/geocode", { text: tj.text });
    if (gj.error) {
      log("Geocoding error: " + gj.error);
      destSpan.innerText = "-";
      startNavBtn.disabled = true;
      return;
    }
    destination = gj;
    destSpan.innerText = gj.lat.toFixed(6) + ", " + gj.lon.toFixed(6) + " (" + gj.label + ")";
    startNavBtn.disabled = false;
    log("Destination resolved: " + gj.label);
  };
  mediaRecorder.start();
  recordBtn.innerText = "Stop & Upload";
  setTimeout(() => { if (mediaRecorder.state === "recording") mediaRecorder.stop(); }, 4000);
};

startNavBtn.onclick = async () => {
  if (!destination) return;
  const j = await postJSON("/directions", { end: { lat: destination.lat, lon: destination.lon } });
  if (j.error) { log("Directions error: " + j.error); return; }
  drawRoute(j.steps);
  runNavigation(j.steps, document.getElementById("announceDistance").checked);
};

function drawRoute(steps) {
  if (destMarker) map.removeLayer(destMarker);
  if (routeLine) map.removeLayer(routeLine);
  destMarker = L.marker([destination.lat, destination.lon], { title: "Destination" }).addTo(map);
  const pts = [[origin.lat, origin.lon]];
  steps.forEach(s => pts.push([s.lat, s.lon]));
  pts.push([destination.lat, destination.lon]);
  routeLine = L.polyline(pts, { color: "blue" }).addTo(map);
  map.fitBounds(routeLine.getBounds());
}

function runNavigation(steps, announceDistance) {
  if (!steps.length) { log("No navigation steps available."); return; }
  speak("Starting navigation from " + origin.label + ".");
  let current = 0;
  const warned = {};
  const watcher = navigator.geolocation.watchPosition(pos => {
    const lat = pos.coords.latitude, lon = pos.coords.longitude;
    if (userMarker) userMarker.setLatLng([lat, lon]);
    if (current >= steps.length) {
      speak("You have arrived at your destination.");
      log("Navigation complete.");
      navigator.geolocation.clearWatch(watcher);
      return;
    }
    const step = steps[current];
    const dist = distanceMeters(lat, lon, step.lat, step.lon);
    log("Step " + (current + 1) + ": " + (step.instruction || "") + " | " + dist.toFixed(1) + "m");
    if (!warned[current] && (!announceDistance || (dist < 70 && dist > 12))) {
      speak(announceDistance ? "In " + Math.round(dist) + " meters, " + step.instruction : step.instruction);
      warned[current] = true;
    }
    if (dist < 12) current++;
  }, err => log("Geolocation error: " + err.message), { enableHighAccuracy: true, maximumAge: 0, timeout: 5000 });
}

// Obstacle detection: each label is spoken at most once per 5 s.
const video = document.getElementById("camera");
const canvas = document.getElementById("canvas");
const ctx = canvas.getContext("2d");
const minScore = 0.6;
const repeatAfterMs = 5000;

async function startCamera() {
  if (typeof cocoSsd === "undefined") { log("Object detection unavailable."); return; }
  video.srcObject = await navigator.mediaDevices.getUserMedia({ video: true });
  const model = await cocoSsd.load();
  log("Object detection model loaded.");
  const lastSpoken = {};

  async function detectFrame() {
    const predictions = await model.detect(video);
    ctx.drawImage(video, 0, 0, canvas.width, canvas.height);
    predictions.forEach(p => {
      if (p.score <= minScore) return;
      const [x, y, w, h] = p.bbox;
      ctx.strokeStyle = "red";
      ctx.lineWidth = 2;
      ctx.strokeRect(x, y, w, h);
      ctx.font = "14px Arial";
      ctx.fillStyle = "red";
      ctx.fillText(p.class + " (" + (p.score * 100).toFixed(1) + "%)", x, y - 5);

      const now = Date.now();
      if (!lastSpoken[p.class] || now - lastSpoken[p.class] > repeatAfterMs) {
        speak(p.class + " ahead");
        lastSpoken[p.class] = now;
      }
    });
    requestAnimationFrame(detectFrame);
  }
  detectFrame();
}

startCamera().catch(err => log("Camera error: " + err.message));
</script>
</body>
</html>`
