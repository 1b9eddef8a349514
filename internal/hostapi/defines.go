// Package hostapi holds the #define tables the compiled programs see as
// pre-bound integer constants: I/O flags and GPIO/PWM/clock/IRQ mnemonics.
// Grounded on original_source/src/cc.c's stdio_defines/gpio_defines/
// pwm_defines/clk_defines/irq_defines tables — one Go struct slice per C
// define_grp; Lookup reads a name-to-value map built from them in init.
package hostapi

import "sort"

// Define is one named integer constant exposed to compiled source, the Go
// shape of C's "struct define_grp { char *name; int val; }".
type Define struct {
	Name string
	Val  int
}

// Group is a named table of Defines, mirroring one of cc.c's *_defines
// arrays (stdio_defines, gpio_defines, ...).
type Group struct {
	Name    string
	Defines []Define
}

var stdioDefines = []Define{
	{"TRUE", 1}, {"true", 1}, {"FALSE", 0}, {"false", 0},
	{"O_RDONLY", 1}, {"O_WRONLY", 2}, {"O_RDWR", 3},
	{"O_CREAT", 0x0100}, {"O_EXCL", 0x0200}, {"O_TRUNC", 0x0400}, {"O_APPEND", 0x0800},
	{"SEEK_SET", 0}, {"SEEK_CUR", 1}, {"SEEK_END", 2},
}

var gpioDefines = []Define{
	{"GPIO_FUNC_XIP", 0}, {"GPIO_FUNC_SPI", 1}, {"GPIO_FUNC_UART", 2},
	{"GPIO_FUNC_I2C", 3}, {"GPIO_FUNC_PWM", 4}, {"GPIO_FUNC_SIO", 5},
	{"GPIO_FUNC_PIO0", 6}, {"GPIO_FUNC_PIO1", 7}, {"GPIO_FUNC_GPCK", 8},
	{"GPIO_FUNC_USB", 9}, {"GPIO_FUNC_NULL", 0x1f},
	{"GPIO_OUT", 1}, {"GPIO_IN", 0},
	{"GPIO_IRQ_LEVEL_LOW", 0x1}, {"GPIO_IRQ_LEVEL_HIGH", 0x2},
	{"GPIO_IRQ_EDGE_FALL", 0x4}, {"GPIO_IRQ_EDGE_RISE", 0x8},
	{"GPIO_OVERRIDE_NORMAL", 0}, {"GPIO_OVERRIDE_INVERT", 1},
	{"GPIO_OVERRIDE_LOW", 2}, {"GPIO_OVERRIDE_HIGH", 3},
	{"GPIO_SLEW_RATE_SLOW", 0}, {"GPIO_SLEW_RATE_FAST", 1},
	{"GPIO_DRIVE_STRENGTH_2MA", 0}, {"GPIO_DRIVE_STRENGTH_4MA", 1},
	{"GPIO_DRIVE_STRENGTH_8MA", 2}, {"GPIO_DRIVE_STRENGTH_12MA", 3},
	{"PICO_DEFAULT_LED_PIN", 25},
}

var pwmDefines = []Define{
	{"PWM_DIV_FREE_RUNNING", 0}, {"PWM_DIV_B_HIGH", 1},
	{"PWM_DIV_B_RISING", 2}, {"PWM_DIV_B_FALLING", 3},
	{"PWM_CHAN_A", 0}, {"PWM_CHAN_B", 1},
}

var clkDefines = []Define{
	{"KHZ", 1000}, {"MHZ", 1000000},
	{"clk_gpout0", 0}, {"clk_gpout1", 1}, {"clk_gpout2", 2}, {"clk_gpout3", 3},
	{"clk_ref", 4}, {"clk_sys", 5}, {"clk_peri", 6}, {"clk_usb", 7},
	{"clk_adc", 8}, {"clk_rtc", 9}, {"CLK_COUNT", 10},
}

var irqDefines = []Define{
	{"TIMER_IRQ_0", 0}, {"TIMER_IRQ_1", 1}, {"TIMER_IRQ_2", 2}, {"TIMER_IRQ_3", 3},
	{"PWM_IRQ_WRAP", 4}, {"USBCTRL_IRQ", 5}, {"XIP_IRQ", 6},
	{"PIO0_IRQ_0", 7}, {"PIO0_IRQ_1", 8}, {"PIO1_IRQ_0", 9}, {"PIO1_IRQ_1", 10},
	{"DMA_IRQ_0", 11}, {"DMA_IRQ_1", 12}, {"IO_IRQ_BANK0", 13}, {"IO_IRQ_QSPI", 14},
	{"SIO_IRQ_PROC0", 15}, {"SIO_IRQ_PROC1", 16}, {"CLOCKS_IRQ", 17},
}

// Groups is every define group a compiled source file may pull constants
// from, in the order cc.c registers them.
var Groups = []Group{
	{"stdio", stdioDefines},
	{"gpio", gpioDefines},
	{"pwm", pwmDefines},
	{"clk", clkDefines},
	{"irq", irqDefines},
}

var byName map[string]int

func init() {
	byName = make(map[string]int)
	for _, g := range Groups {
		defs := append([]Define(nil), g.Defines...)
		sort.Slice(defs, func(i, j int) bool { return defs[i].Name < defs[j].Name })
		for _, d := range defs {
			byName[d.Name] = d.Val
		}
	}
}

// Lookup returns the integer value bound to name and whether it was found,
// searching every group the way cc.c's install_gbls walks its define_grp
// tables at startup.
func Lookup(name string) (int, bool) {
	v, ok := byName[name]
	return v, ok
}
