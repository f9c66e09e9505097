// Command qrscan detects QR codes in images: one-shot file scans, a
// watch-directory daemon, and an IM-bot mode that answers photos sent to
// Telegram, Discord, Slack, Feishu, DingTalk, or QQ.
package main

func main() {
	Execute()
}
