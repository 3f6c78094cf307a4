package main

import (
	"context"
	"time"

	"smarthome-go/bus"
	"smarthome-go/services/config"
	"smarthome-go/services/console"
	"smarthome-go/services/hal/platform"
	"smarthome-go/services/heartbeat"
	"smarthome-go/services/home"
	"smarthome-go/types"
	"smarthome-go/x/fmtx"
)

// deviceID selects the embedded config. Override with
// -ldflags "-X main.deviceID=pico-expander".
var deviceID = "pico"

func halt(msg string, err error) {
	println("[main]", msg, err.Error())
	select {}
}

func main() {
	// Allow USB CDC to enumerate before we print.
	time.Sleep(2 * time.Second)
	println("[main] boot", deviceID)

	ctx := context.WithValue(context.Background(), config.CtxDeviceKey, deviceID)
	b := bus.NewBus(16)
	mainConn := b.NewConnection("main")

	cfgSub := mainConn.Subscribe(config.TopicHome())
	config.NewConfigService().Start(ctx, b.NewConnection("config"))
	var cfg types.HomeConfig
	select {
	case m := <-cfgSub.Channel():
		cfg = m.Payload.(types.HomeConfig)
	case <-time.After(2 * time.Second):
		println("[main] no config for", deviceID)
		select {}
	}
	mainConn.Unsubscribe(cfgSub)

	res := platform.DefaultResources()
	svc, err := home.New(b.NewConnection("home"), res, cfg, home.Options{})
	if err != nil {
		halt("home:", err)
	}
	go svc.Run(ctx)

	if cfg.Console != nil {
		port, err := res.Console(*cfg.Console)
		if err != nil {
			println("[main] console unavailable:", err.Error())
		} else {
			fmtx.DefaultOutput = port
			con := console.New(b.NewConnection("console"), 0)
			go func() {
				if err := con.Serve(ctx, port); err != nil {
					println("[console] stopped:", err.Error())
				}
			}()
			fmtx.Printf("smarthome %s ready: %s\r\n", deviceID, console.Help())
		}
	}

	hb := &heartbeat.Service{}
	_ = hb.Start(ctx, b.NewConnection("heartbeat"))

	select {}
}
