package onboarding

import (
	"fmt"

	"github.com/chonlathan-cloud/lineoa-public-mirror/sessions"
)

// Conversational triggers. The flow is operated in Thai, matching the
// channel's audience.
const (
	TriggerStart   = "เริ่มต้นใหม่"
	TriggerCancel  = "ยกเลิก"
	TriggerOnline  = "ร้านออนไลน์"
	TriggerConfirm = "ยืนยัน"
)

const (
	promptStart        = "พิมพ์ \"" + TriggerStart + "\" เพื่อเริ่มลงทะเบียนร้านค้า"
	promptName         = "เริ่มลงทะเบียนร้านค้า กรุณาพิมพ์ชื่อผู้ติดต่อ"
	promptPhone        = "กรุณาพิมพ์เบอร์โทรศัพท์ (เช่น 0812345678)"
	promptPhoneInvalid = "ขอเบอร์โทรเป็นตัวเลขนะครับ เช่น 0812345678"
	promptShopName     = "กรุณาพิมพ์ชื่อร้าน"
	promptLocation     = "กรุณาแชร์ตำแหน่งที่ตั้งร้าน หรือพิมพ์ \"" + TriggerOnline + "\" หากไม่มีหน้าร้าน"
	promptCancelled    = "ยกเลิกการลงทะเบียนแล้ว พิมพ์ \"" + TriggerStart + "\" หากต้องการเริ่มใหม่"
	promptFallback     = "ขออภัย ไม่เข้าใจข้อความนี้ครับ"
	promptWriteFailed  = "เกิดข้อผิดพลาดขณะบันทึกข้อมูล กรุณาพิมพ์ \"" + TriggerConfirm + "\" อีกครั้ง"
)

func promptForStep(step Step) string {
	switch step {
	case StepName:
		return promptName
	case StepPhone:
		return promptPhone
	case StepShopName:
		return promptShopName
	case StepLocation:
		return promptLocation
	default:
		return promptFallback
	}
}

func promptConfirm(sess sessions.Session) string {
	location := "ธุรกิจออนไลน์ ไม่มีหน้าร้าน"
	if sess.Location != nil && sess.Location.Address != "" {
		location = sess.Location.Address
	} else if sess.Location != nil {
		location = fmt.Sprintf("%.5f, %.5f", sess.Location.Latitude, sess.Location.Longitude)
	}
	return fmt.Sprintf(
		"สรุปข้อมูลร้านค้า\nชื่อผู้ติดต่อ: %s\nเบอร์โทร: %s\nชื่อร้าน: %s\nที่อยู่ร้าน: %s\nพิมพ์ \"%s\" เพื่อยืนยัน หรือ \"%s\" เพื่อยกเลิก",
		sess.Field(fieldName), sess.Field(fieldPhone), sess.Field(fieldShop), location,
		TriggerConfirm, TriggerCancel,
	)
}

func promptDone(shopID string) string {
	return fmt.Sprintf("ลงทะเบียนร้านค้าเรียบร้อยแล้ว รหัสร้านของคุณคือ %s", shopID)
}
