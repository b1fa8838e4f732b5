package core

import "sync"

// System internal event codes. Application should use codes beyond 255.
type SystemEventCode int

const (
	// An asset finished loading and its bundle is stored on the record.
	/* Context usage:
	 * asset = data.Payload.(*assets.Asset)
	 */
	EVENT_CODE_ASSET_LOADED SystemEventCode = 0x01

	// An asset failed to load or its load was cancelled by a queue clear.
	/* Context usage:
	 * asset = data.Payload.(*assets.Asset)
	 * err   = data.Err
	 */
	EVENT_CODE_ASSET_FAILED SystemEventCode = 0x02

	// A scene finished Create().
	/* Context usage:
	 * name = data.Name
	 */
	EVENT_CODE_SCENE_CREATED SystemEventCode = 0x03

	// A scene finished Unload().
	/* Context usage:
	 * name = data.Name
	 */
	EVENT_CODE_SCENE_UNLOADED SystemEventCode = 0x04

	// A scene description changed on disk.
	/* Context usage:
	 * name = data.Name
	 */
	EVENT_CODE_DESCRIPTION_CHANGED SystemEventCode = 0x05

	MAX_EVENT_CODE SystemEventCode = 0xFF
)

// This should be more than enough codes...
const MAX_MESSAGE_CODES = 16384

type EventContext struct {
	Type    SystemEventCode
	Name    string
	Payload interface{}
	Err     error
}

// Should return true if handled.
type FnOnEvent func(sender interface{}, listener interface{}, data EventContext) bool

type registeredEvent struct {
	listener interface{}
	callback FnOnEvent
}

// EventSystem dispatches events synchronously on the goroutine calling Fire.
type EventSystem struct {
	mutex      sync.RWMutex
	registered map[SystemEventCode][]*registeredEvent
}

func NewEventSystem() *EventSystem {
	return &EventSystem{
		registered: make(map[SystemEventCode][]*registeredEvent),
	}
}

func (es *EventSystem) Shutdown() error {
	es.mutex.Lock()
	defer es.mutex.Unlock()
	// Free the events arrays. And objects pointed to should be destroyed on their own.
	es.registered = make(map[SystemEventCode][]*registeredEvent)
	return nil
}

/**
 * Register to listen for when events are sent with the provided code. Events with duplicate
 * listeners will not be registered again and will cause this to return FALSE.
 * @param code The event code to listen for.
 * @param listener A pointer to a listener instance.
 * @param onEvent The callback function pointer to be invoked when the event code is fired.
 * @returns TRUE if the event is successfully registered; otherwise false.
 */
func (es *EventSystem) Register(code SystemEventCode, listener interface{}, onEvent FnOnEvent) bool {
	if code < 0 || code >= MAX_MESSAGE_CODES || onEvent == nil {
		return false
	}
	es.mutex.Lock()
	defer es.mutex.Unlock()

	for _, e := range es.registered[code] {
		if e.listener == listener {
			LogWarn("event %d already has this listener registered", code)
			return false
		}
	}
	// If at this point, no duplicate was found. Proceed with registration.
	es.registered[code] = append(es.registered[code], &registeredEvent{
		listener: listener,
		callback: onEvent,
	})
	return true
}

/**
 * Unregister from listening for when events are sent with the provided code. If no matching
 * registration is found, this function returns FALSE.
 */
func (es *EventSystem) Unregister(code SystemEventCode, listener interface{}) bool {
	es.mutex.Lock()
	defer es.mutex.Unlock()

	events := es.registered[code]
	for i, e := range events {
		if e.listener == listener {
			es.registered[code] = append(events[:i:i], events[i+1:]...)
			return true
		}
	}
	// Not found.
	return false
}

/**
 * Fires an event to listeners of the given code. If an event handler returns
 * TRUE, the event is considered handled and is not passed on to any more listeners.
 * @returns TRUE if handled, otherwise FALSE.
 */
func (es *EventSystem) Fire(sender interface{}, data EventContext) bool {
	es.mutex.RLock()
	// copy so callbacks may (un)register without deadlocking
	events := append([]*registeredEvent(nil), es.registered[data.Type]...)
	es.mutex.RUnlock()

	for _, e := range events {
		if e.callback(sender, e.listener, data) {
			// Message has been handled, do not send to other listeners.
			return true
		}
	}
	return false
}
